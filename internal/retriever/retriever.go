package retriever

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"

	"textbook-rag/internal/domain"
)

// Retriever returns ranked, confidence-filtered matches for a query.
//
// The primary path embeds the query and asks the vector store for nearest
// neighbors. Whenever that path is unavailable or fails, retrieval
// silently degrades to lexical matching over the in-memory corpus; the
// caller only notices through lower scores.
type Retriever struct {
	embedder domain.Embedder // nil when no embedding capability is configured
	store    domain.VectorStore
	minScore float64
	timeout  time.Duration
	logger   log.Logger

	corpus []domain.Chunk // populated once at ingest, read-only afterwards
}

// New creates a retriever. embedder may be nil; the retriever then always
// uses the lexical fallback.
func New(embedder domain.Embedder, store domain.VectorStore, minScore float64, timeout time.Duration, logger log.Logger) *Retriever {
	if minScore <= 0 {
		minScore = 0.5
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		minScore: minScore,
		timeout:  timeout,
		logger:   logger,
	}
}

// SetCorpus installs the fallback corpus. Called once after ingestion,
// before queries are served.
func (r *Retriever) SetCorpus(chunks []domain.Chunk) {
	r.corpus = chunks
}

// Degraded reports whether the embedding path is unavailable.
func (r *Retriever) Degraded() bool {
	return r.embedder == nil || r.store == nil
}

// Retrieve returns at most k matches ordered by descending score. An
// empty result is a valid "no relevant content" outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []domain.Match {
	if k <= 0 {
		k = 5
	}
	if r.Degraded() {
		return r.lexicalSearch(query, k)
	}
	matches, err := r.semanticSearch(ctx, query, k)
	if err != nil {
		r.logger.Warn().Err(err).Str("query", query).Msg("semantic retrieval failed, using lexical fallback")
		return r.lexicalSearch(query, k)
	}
	return matches
}

func (r *Retriever) semanticSearch(ctx context.Context, query string, k int) ([]domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	neighbors, err := r.store.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	// Keep store order (descending similarity, stable ties); only drop
	// neighbors below the confidence threshold.
	matches := make([]domain.Match, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Score >= r.minScore {
			matches = append(matches, n)
		}
	}
	return matches, nil
}

// lexicalSearch scores each corpus chunk by the fraction of query terms
// occurring as substrings of the chunk content. Terms come from a plain
// whitespace split without deduplication or stop-word removal, matching
// the scoring the rest of the system is calibrated against.
func (r *Retriever) lexicalSearch(query string, k int) []domain.Match {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}
	var matches []domain.Match
	for _, chunk := range r.corpus {
		content := strings.ToLower(chunk.Content)
		hits := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		matches = append(matches, domain.Match{
			ChunkID:  chunk.ID,
			SourceID: chunk.SourceID,
			Content:  chunk.Content,
			Score:    float64(hits) / float64(len(terms)),
			Metadata: chunk.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}
