package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Embedder generates embeddings through the Gemini API.
type Embedder struct {
	client    *genai.Client
	model     string
	dimension int
	timeout   time.Duration
}

// Config configures the Gemini embedder.
type Config struct {
	APIKeyEnv string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// NewEmbedder creates a Gemini-backed embedder. A missing API key is a
// construction error so deployments that require a provider fail early.
func NewEmbedder(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 768
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing genai client: %w", err)
	}
	return &Embedder{
		client:    client,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		timeout:   cfg.Timeout,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "gemini" }

// Prepare is not required for remote embedding.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension returns the configured output dimensionality.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedDocuments embeds each text in order. Blank texts are mapped to
// zero vectors so the output stays aligned with the input.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			vectors[i] = make([]float32, e.dimension)
			continue
		}
		vec, err := e.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding document %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text. Blank input yields a zero vector.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dimension), nil
	}
	return e.embed(ctx, text)
}

func (e *Embedder) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	outputDim := int32(e.dimension)
	result, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{OutputDimensionality: &outputDim})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned from API")
	}
	vec := result.Embeddings[0].Values
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(vec))
	}
	return vec, nil
}
