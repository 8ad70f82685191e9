package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"textbook-rag/internal/composer"
	"textbook-rag/internal/corpus"
	"textbook-rag/internal/domain"
	"textbook-rag/internal/retriever"
)

// ErrEmptyQuery is the client-input error for a blank query string. It is
// the only error AnswerQuery returns; provider degradation never surfaces
// as a failure.
var ErrEmptyQuery = errors.New("query must not be empty")

// degradedConfidenceCap bounds reported confidence when neither an
// embedding nor a generation capability is available.
const degradedConfidenceCap = 0.5

// Deps collects the capabilities the service orchestrates. Embedder and
// Store may be nil; the service then runs fully degraded on the lexical
// corpus.
type Deps struct {
	Chunker    domain.Chunker
	Embedder   domain.Embedder
	Store      domain.VectorStore
	Retriever  *retriever.Retriever
	Composer   *composer.Composer
	Translator domain.Translator
	Summarizer domain.Summarizer

	MaxChunks           int
	SummaryMaxSentences int
	EmbedBatchSize      int
	EmbedMaxRetries     int
	Logger              log.Logger
}

// Service wires retrieval and composition into the query entry point and
// owns content ingestion. All state it shares between queries is written
// during Ingest and read-only afterwards.
type Service struct {
	deps Deps
}

// New creates the query service.
func New(deps Deps) *Service {
	if deps.MaxChunks <= 0 {
		deps.MaxChunks = 5
	}
	if deps.SummaryMaxSentences <= 0 {
		deps.SummaryMaxSentences = 5
	}
	if deps.EmbedBatchSize <= 0 {
		deps.EmbedBatchSize = 96
	}
	if deps.EmbedMaxRetries <= 0 {
		deps.EmbedMaxRetries = 2
	}
	return &Service{deps: deps}
}

// Degraded reports full degraded mode: no embedding and no generation
// capability.
func (s *Service) Degraded() bool {
	return s.deps.Embedder == nil && s.deps.Composer.GeneratorCount() == 0
}

// Ingest loads the chunk corpus, embeds it, seeds the vector store and
// installs the fallback corpus. It prefers the precomputed snapshot and
// regenerates from the content directory when the snapshot is absent or
// malformed. Returns a short corpus digest.
func (s *Service) Ingest(ctx context.Context, contentDir, snapshotPath string) (string, error) {
	d := s.deps

	chunks, vectors, fromSnapshot := s.loadSnapshot(snapshotPath)
	if chunks == nil {
		chapters, err := corpus.LoadChapters(contentDir)
		if err != nil {
			return "", err
		}
		if len(chapters) == 0 {
			return "", errors.New("no chapters found in content directory")
		}
		chunks = corpus.BuildChunks(chapters, d.Chunker)
		d.Logger.Info().Int("chapters", len(chapters)).Int("chunks", len(chunks)).Msg("content processed")
	}

	if d.Embedder != nil {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		if err := d.Embedder.Prepare(texts); err != nil {
			return "", err
		}
		dim := d.Embedder.Dimension()
		if vectors != nil && len(vectors) > 0 && len(vectors[0]) != dim {
			d.Logger.Warn().Int("snapshot_dim", len(vectors[0])).Int("embedder_dim", dim).Msg("snapshot dimension mismatch, re-embedding")
			vectors = nil
		}
		if vectors == nil {
			var err error
			vectors, err = corpus.EmbedChunks(ctx, d.Embedder, chunks, d.EmbedBatchSize, d.EmbedMaxRetries, d.Logger)
			if err != nil {
				return "", err
			}
			if snapshotPath != "" {
				if err := corpus.SaveSnapshot(snapshotPath, &corpus.Snapshot{Chunks: chunks, Vectors: vectors}); err != nil {
					d.Logger.Warn().Err(err).Str("path", snapshotPath).Msg("snapshot save failed")
				}
			}
		}
		if d.Store != nil {
			if err := d.Store.Init(ctx, dim); err != nil {
				return "", err
			}
			if err := d.Store.Clear(ctx); err != nil {
				return "", err
			}
			if err := d.Store.Upsert(ctx, chunks, vectors); err != nil {
				return "", err
			}
		}
	}

	d.Retriever.SetCorpus(chunks)
	if fromSnapshot {
		d.Logger.Info().Int("chunks", len(chunks)).Msg("corpus loaded from snapshot")
	}

	var all strings.Builder
	for _, c := range chunks {
		all.WriteString(c.Content)
		all.WriteString("\n")
	}
	return d.Summarizer.Summarize(all.String(), d.SummaryMaxSentences)
}

func (s *Service) loadSnapshot(path string) ([]domain.Chunk, [][]float32, bool) {
	if path == "" {
		return nil, nil, false
	}
	snap, err := corpus.LoadSnapshot(path)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Str("path", path).Msg("precomputed snapshot unusable, regenerating")
		return nil, nil, false
	}
	return snap.Chunks, snap.Vectors, true
}

// AnswerQuery processes one query end to end: retrieve, compose, apply
// complexity and language transforms, and assemble the result. Provider
// failures degrade the answer; they never fail the call.
func (s *Service) AnswerQuery(ctx context.Context, query string, opts domain.QueryOptions) (domain.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return domain.QueryResult{}, ErrEmptyQuery
	}
	d := s.deps

	k := opts.MaxChunks
	if k <= 0 {
		k = d.MaxChunks
	}
	matches := d.Retriever.Retrieve(ctx, query, k)
	text := d.Composer.Compose(ctx, query, matches)

	if opts.Personalize {
		text = applyComplexity(text, opts.Complexity)
	}
	if opts.Language != "" && opts.Language != "en" && d.Translator.Supports(opts.Language) {
		text = d.Translator.Translate(text, opts.Language)
	}

	seen := make(map[string]struct{}, len(matches))
	var sourceIDs []string
	for _, m := range matches {
		if _, ok := seen[m.SourceID]; ok {
			continue
		}
		seen[m.SourceID] = struct{}{}
		sourceIDs = append(sourceIDs, m.SourceID)
	}
	sort.Strings(sourceIDs)

	confidence := 0.0
	if len(matches) > 0 {
		for _, m := range matches {
			confidence += m.Score
		}
		confidence /= float64(len(matches))
	}
	if s.Degraded() && confidence > degradedConfidenceCap {
		confidence = degradedConfidenceCap
	}

	return domain.QueryResult{
		Answer:     text,
		SourceIDs:  sourceIDs,
		Confidence: confidence,
		ChunksUsed: len(matches),
		QueryID:    uuid.NewString(),
	}, nil
}

// applyComplexity is a presentation transform; it never changes retrieval
// or generation.
func applyComplexity(text, level string) string {
	switch level {
	case domain.ComplexityBeginner:
		return "[BEGINNER LEVEL] " + text
	case domain.ComplexityAdvanced:
		return "[ADVANCED LEVEL] " + text
	default:
		return text
	}
}
