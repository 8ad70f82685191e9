package generation

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"
)

// GeminiGenerator produces answers through the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKeyEnv   string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
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
	return &GeminiGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

// Name returns the identifier of this generator.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate submits the prompt and returns the generated text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}, &genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)})
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}
