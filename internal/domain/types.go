package domain

// Chunk is a bounded-size unit of source text and the atomic retrieval granule.
// Chunk ids are derived from the source id and the chunk index, so reprocessing
// unchanged content yields identical ids.
type Chunk struct {
	ID       string            `json:"id"`
	SourceID string            `json:"source_id"`
	Content  string            `json:"content"`
	Index    int               `json:"index"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Match is a retrieved chunk with its relevance score. Matches exist only for
// the duration of a query and are never persisted.
type Match struct {
	ChunkID  string
	SourceID string
	Content  string
	Score    float64
	Metadata map[string]string
}

// Complexity levels for answer personalization.
const (
	ComplexityBeginner     = "beginner"
	ComplexityIntermediate = "intermediate"
	ComplexityAdvanced     = "advanced"
)

// QueryOptions carries per-query knobs. Zero values fall back to the
// service defaults (MaxChunks from config, intermediate complexity, English).
type QueryOptions struct {
	MaxChunks   int
	Complexity  string
	Language    string
	Personalize bool
}

// QueryResult is the structured response for a single query.
type QueryResult struct {
	Answer     string
	SourceIDs  []string
	Confidence float64
	ChunksUsed int
	QueryID    string
}
