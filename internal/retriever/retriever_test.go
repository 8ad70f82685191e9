package retriever

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/domain"
)

var testLogger = log.Logger{Level: log.InfoLevel, Writer: log.IOWriter{Writer: io.Discard}}

type stubEmbedder struct {
	dim int
	err error
}

func (s *stubEmbedder) Name() string                { return "stub" }
func (s *stubEmbedder) Prepare(corpus []string) error { return nil }
func (s *stubEmbedder) Dimension() int              { return s.dim }

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return make([]float32, s.dim), nil
}

type stubStore struct {
	matches []domain.Match
	err     error
}

func (s *stubStore) Init(ctx context.Context, dimension int) error { return nil }
func (s *stubStore) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	return nil
}
func (s *stubStore) Clear(ctx context.Context) error { return nil }

func (s *stubStore) Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	if topK > len(s.matches) {
		topK = len(s.matches)
	}
	return s.matches[:topK], nil
}

func fallbackCorpus() []domain.Chunk {
	return []domain.Chunk{
		{ID: "phys_chunk_0", SourceID: "phys", Content: "humanoid robots maintain balance using digital twin models"},
		{ID: "phys_chunk_1", SourceID: "phys", Content: "physical AI overview"},
	}
}

func TestRetrieveFiltersAndKeepsOrder(t *testing.T) {
	// The index returns neighbors ordered by descending similarity;
	// retrieval only drops the ones below the threshold.
	store := &stubStore{matches: []domain.Match{
		{ChunkID: "c", Score: 0.95},
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.7},
		{ChunkID: "d", Score: 0.4},
	}}
	r := New(&stubEmbedder{dim: 4}, store, 0.5, time.Second, testLogger)

	matches := r.Retrieve(context.Background(), "anything", 5)
	require.Len(t, matches, 3)
	assert.Equal(t, []float64{0.95, 0.9, 0.7}, []float64{matches[0].Score, matches[1].Score, matches[2].Score})
	assert.Equal(t, "c", matches[0].ChunkID)
}

func TestLexicalFallbackWithoutEmbedder(t *testing.T) {
	r := New(nil, nil, 0.5, time.Second, testLogger)
	r.SetCorpus(fallbackCorpus())
	require.True(t, r.Degraded())

	matches := r.Retrieve(context.Background(), "balance digital twin", 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "phys_chunk_0", matches[0].ChunkID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestLexicalFallbackPartialScore(t *testing.T) {
	r := New(nil, nil, 0.5, time.Second, testLogger)
	r.SetCorpus([]domain.Chunk{
		{ID: "x_chunk_0", SourceID: "x", Content: "balance and digital control loops"},
	})

	matches := r.Retrieve(context.Background(), "balance digital twin", 5)
	require.Len(t, matches, 1)
	assert.InDelta(t, 2.0/3.0, matches[0].Score, 1e-9)
}

func TestEmbedderErrorTriggersFallback(t *testing.T) {
	r := New(&stubEmbedder{dim: 4, err: errors.New("quota exceeded")}, &stubStore{}, 0.5, time.Second, testLogger)
	r.SetCorpus(fallbackCorpus())

	matches := r.Retrieve(context.Background(), "balance digital twin", 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "phys_chunk_0", matches[0].ChunkID)
}

func TestStoreErrorTriggersFallback(t *testing.T) {
	r := New(&stubEmbedder{dim: 4}, &stubStore{err: errors.New("connection refused")}, 0.5, time.Second, testLogger)
	r.SetCorpus(fallbackCorpus())

	matches := r.Retrieve(context.Background(), "physical overview", 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "phys_chunk_1", matches[0].ChunkID)
}

func TestNoRelevantContentIsEmptyNotError(t *testing.T) {
	r := New(nil, nil, 0.5, time.Second, testLogger)
	r.SetCorpus(fallbackCorpus())

	assert.Empty(t, r.Retrieve(context.Background(), "quantum finance", 5))
	assert.Empty(t, r.Retrieve(context.Background(), "", 5))
}

func TestLexicalFallbackRanksAndLimits(t *testing.T) {
	r := New(nil, nil, 0.5, time.Second, testLogger)
	r.SetCorpus([]domain.Chunk{
		{ID: "a", Content: "alpha only"},
		{ID: "b", Content: "alpha beta both here"},
		{ID: "c", Content: "nothing relevant"},
		{ID: "d", Content: "alpha beta again"},
	})

	matches := r.Retrieve(context.Background(), "alpha beta", 2)
	require.Len(t, matches, 2)
	// Full matches first; ties keep corpus order.
	assert.Equal(t, "b", matches[0].ChunkID)
	assert.Equal(t, "d", matches[1].ChunkID)
}
