package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"textbook-rag/internal/domain"
)

// ParagraphChunker splits content on blank-line boundaries and packs
// oversized paragraphs sentence by sentence. Chunk ids follow the
// "<source>_chunk_<index>" scheme and indices restart at 0 per source,
// so identical input always produces identical ids.
type ParagraphChunker struct {
	maxChunkChars int
	// overlapChars is carried from the configuration surface but not
	// applied: paragraph and sentence-pack boundaries are hard splits.
	overlapChars int
	paragraphRe  *regexp.Regexp
}

// NewParagraphChunker creates a chunker with the given size bound.
func NewParagraphChunker(maxChunkChars, overlapChars int) *ParagraphChunker {
	if maxChunkChars <= 0 {
		maxChunkChars = 512
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	return &ParagraphChunker{
		maxChunkChars: maxChunkChars,
		overlapChars:  overlapChars,
		paragraphRe:   regexp.MustCompile(`\n\s*\n`),
	}
}

// Chunk splits content into ordered chunks for the given source.
// Every emitted chunk is at most maxChunkChars long except for a single
// sentence that alone exceeds the bound, which is emitted whole.
func (c *ParagraphChunker) Chunk(content, sourceID string) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0
	emit := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		chunks = append(chunks, domain.Chunk{
			ID:       fmt.Sprintf("%s_chunk_%d", sourceID, index),
			SourceID: sourceID,
			Content:  text,
			Index:    index,
			Metadata: map[string]string{"source": sourceID},
		})
		index++
	}

	for _, para := range c.paragraphRe.Split(content, -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		if charLen(para) <= c.maxChunkChars {
			emit(para)
			continue
		}
		// Oversized paragraph: pack consecutive sentences greedily.
		var acc strings.Builder
		for _, sentence := range splitSentences(para) {
			if charLen(acc.String())+charLen(sentence)+1 <= c.maxChunkChars {
				acc.WriteString(" ")
				acc.WriteString(sentence)
				continue
			}
			emit(acc.String())
			acc.Reset()
			acc.WriteString(sentence)
		}
		emit(acc.String())
	}
	return chunks
}

// splitSentences cuts text after '.', '!' or '?' followed by whitespace.
// The trailing run of whitespace is consumed; a final fragment without
// terminal punctuation is kept as its own sentence.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			out = append(out, string(runes[start:i+1]))
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			start = j
			i = j - 1
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func charLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
