package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestChunkShortParagraphs(t *testing.T) {
	content := "First paragraph here.\n\nSecond paragraph here.\n\n\n\nThird one."
	c := NewParagraphChunker(100, 0)
	chunks := c.Chunk(content, "ch1")

	require.Len(t, chunks, 3)
	assert.Equal(t, "First paragraph here.", chunks[0].Content)
	assert.Equal(t, "ch1_chunk_0", chunks[0].ID)
	assert.Equal(t, "ch1_chunk_1", chunks[1].ID)
	assert.Equal(t, "ch1_chunk_2", chunks[2].ID)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "ch1", ch.SourceID)
	}
}

func TestChunkCoverage(t *testing.T) {
	content := "Robots learn to walk. They fall often! Why do they fall? Balance is hard.\n\n" +
		"Digital twins simulate the world. Training happens in simulation first.\n\n" +
		"A short closing paragraph."
	c := NewParagraphChunker(40, 0)
	chunks := c.Chunk(content, "ch2")
	require.NotEmpty(t, chunks)

	var joined strings.Builder
	for _, ch := range chunks {
		joined.WriteString(ch.Content)
		joined.WriteString(" ")
	}
	assert.Equal(t, normalize(content), normalize(joined.String()))
}

func TestChunkSizeBound(t *testing.T) {
	var sentences []string
	for i := 0; i < 20; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %d is short.", i))
	}
	content := strings.Join(sentences, " ")
	c := NewParagraphChunker(80, 0)
	chunks := c.Chunk(content, "ch3")
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 80, "chunk %q exceeds bound", ch.Content)
	}
}

func TestOversizedSentenceEmittedWhole(t *testing.T) {
	long := strings.Repeat("verylongword ", 30) + "end."
	content := "A tiny sentence. " + long + " Another tiny sentence."
	c := NewParagraphChunker(50, 0)
	chunks := c.Chunk(content, "ch4")

	found := false
	for _, ch := range chunks {
		if strings.Contains(ch.Content, "verylongword") {
			found = true
			assert.Equal(t, strings.TrimSpace(long), ch.Content, "oversized sentence must not be truncated")
		}
	}
	assert.True(t, found, "oversized sentence missing from output")
}

func TestChunkDeterminism(t *testing.T) {
	content := "One paragraph. With sentences! And questions?\n\nAnother paragraph entirely."
	c := NewParagraphChunker(30, 0)
	first := c.Chunk(content, "ch5")
	second := c.Chunk(content, "ch5")

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}

func TestChunkEmptyInput(t *testing.T) {
	c := NewParagraphChunker(100, 0)
	assert.Empty(t, c.Chunk("", "ch6"))
	assert.Empty(t, c.Chunk("\n\n  \n\n", "ch6"))
}

func TestIndicesRestartPerSource(t *testing.T) {
	c := NewParagraphChunker(100, 0)
	a := c.Chunk("Para one.\n\nPara two.", "a")
	b := c.Chunk("Para one.\n\nPara two.", "b")
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, "a_chunk_0", a[0].ID)
	assert.Equal(t, "b_chunk_0", b[0].ID)
}
