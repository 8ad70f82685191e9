package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"textbook-rag/internal/domain"
)

// Store is an in-memory vector store using linear-scan cosine similarity.
// It holds the chunk list and the vector list as parallel slices; both are
// written once during ingestion and only read while serving queries.
type Store struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []domain.Chunk
}

// NewStore creates an empty in-memory store.
func NewStore() *Store { return &Store{} }

// Init sets the vector dimension and drops any stored data.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.chunks = nil
	return nil
}

// Upsert appends chunks and their vectors. The two lists must be the
// same length and every vector must match the configured dimension.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search returns the topK most similar chunks by cosine similarity,
// descending. Ties keep insertion order.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = cosine(s.vectors[i], vector)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.Match, 0, topK)
	for _, j := range idxs[:topK] {
		c := s.chunks[j]
		results = append(results, domain.Match{
			ChunkID:  c.ID,
			SourceID: c.SourceID,
			Content:  c.Content,
			Score:    scores[j],
			Metadata: c.Metadata,
		})
	}
	return results, nil
}

// Clear drops all stored chunks and vectors.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.chunks = nil
	return nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
