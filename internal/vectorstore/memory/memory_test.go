package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/domain"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Init(context.Background(), 3))
	chunks := []domain.Chunk{
		{ID: "a_chunk_0", SourceID: "a", Content: "x axis"},
		{ID: "b_chunk_0", SourceID: "b", Content: "y axis"},
		{ID: "c_chunk_0", SourceID: "c", Content: "diagonal"},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
	}
	require.NoError(t, s.Upsert(context.Background(), chunks, vectors))
	return s
}

func TestSearchRanksByCosine(t *testing.T) {
	s := seededStore(t)
	matches, err := s.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "a_chunk_0", matches[0].ChunkID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "c_chunk_0", matches[1].ChunkID)
	assert.InDelta(t, 0.7071, matches[1].Score, 1e-3)
	assert.Equal(t, "b_chunk_0", matches[2].ChunkID)
	assert.InDelta(t, 0.0, matches[2].Score, 1e-6)
}

func TestSearchLimitsTopK(t *testing.T) {
	s := seededStore(t)
	matches, err := s.Search(context.Background(), []float32{1, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "c_chunk_0", matches[0].ChunkID)
}

func TestSearchZeroVector(t *testing.T) {
	s := seededStore(t)
	matches, err := s.Search(context.Background(), []float32{0, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Zero(t, m.Score)
	}
	// All ties: insertion order is preserved.
	assert.Equal(t, "a_chunk_0", matches[0].ChunkID)
	assert.Equal(t, "b_chunk_0", matches[1].ChunkID)
	assert.Equal(t, "c_chunk_0", matches[2].ChunkID)
}

func TestUpsertValidation(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Init(context.Background(), 3))

	err := s.Upsert(context.Background(), []domain.Chunk{{ID: "a"}}, nil)
	assert.Error(t, err)

	err = s.Upsert(context.Background(), []domain.Chunk{{ID: "a"}}, [][]float32{{1, 0}})
	assert.Error(t, err)
}

func TestInitValidatesDimensionAndResets(t *testing.T) {
	s := seededStore(t)
	assert.Error(t, s.Init(context.Background(), 0))

	require.NoError(t, s.Init(context.Background(), 2))
	matches, err := s.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestClear(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.Clear(context.Background()))
	matches, err := s.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
