package domain

import "context"

// Embedder converts free text into fixed-dimension numeric vectors.
// Implementations may require a preparation phase over the corpus.
// Blank input must produce a zero vector of the configured dimension,
// never an error, so chunk lists and vector lists stay aligned.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits source text into ordered retrieval chunks.
type Chunker interface {
	Chunk(content, sourceID string) []Chunk
}

// VectorStore persists vectors and supports nearest-neighbor search by
// cosine similarity.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Clear(ctx context.Context) error
}

// Generator produces text from a prompt. Any returned error means the
// generator is unavailable for this call; callers move on to the next
// fallback stage.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Translator rewrites text into a target language. Translate is a pure
// text transform; unsupported languages leave the text unchanged.
type Translator interface {
	Translate(text, targetLang string) string
	Supports(lang string) bool
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
