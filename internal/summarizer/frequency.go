package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Frequency ranks sentences by normalized token frequency and keeps the
// top ones in their original order. Used for the corpus digest shown
// after ingestion.
type Frequency struct {
	tokenRe    *regexp.Regexp
	sentenceRe *regexp.Regexp
	stopwords  map[string]struct{}
}

// NewFrequency creates a frequency-based summarizer.
func NewFrequency() *Frequency {
	return &Frequency{
		tokenRe:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentenceRe: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:  stopwords(),
	}
}

// Summarize returns at most maxSentences of the highest-scoring
// sentences, joined in source order.
func (f *Frequency) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := f.sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	freq := map[string]float64{}
	maxF := 0.0
	for _, sent := range sentences {
		for _, tok := range f.tokens(sent) {
			freq[tok]++
			if freq[tok] > maxF {
				maxF = freq[tok]
			}
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := f.tokens(sent)
		score := 0.0
		for _, tok := range toks {
			if maxF > 0 {
				score += freq[tok] / maxF
			}
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		ranked[i] = scored{i, score}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if maxSentences > len(ranked) {
		maxSentences = len(ranked)
	}
	keep := make([]int, maxSentences)
	for i := 0; i < maxSentences; i++ {
		keep[i] = ranked[i].idx
	}
	sort.Ints(keep)

	out := make([]string, len(keep))
	for i, idx := range keep {
		out[i] = strings.TrimSpace(sentences[idx])
	}
	return strings.Join(out, " "), nil
}

func (f *Frequency) tokens(text string) []string {
	raw := f.tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, skip := f.stopwords[t]; skip {
			continue
		}
		out = append(out, t)
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
