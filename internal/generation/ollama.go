package generation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaGenerator produces answers through a local or remote Ollama server.
// It usually serves as the secondary stage in the generation chain.
type OllamaGenerator struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// OllamaConfig configures the Ollama generator.
type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// NewOllama creates an Ollama-backed generator. Host defaults to the
// OLLAMA_HOST environment setting.
func NewOllama(cfg OllamaConfig) (*OllamaGenerator, error) {
	hostURL := envconfig.Host()
	if cfg.Host != "" {
		parsed, err := url.Parse(cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Host, err)
		}
		hostURL = parsed
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OllamaGenerator{
		client:  api.NewClient(hostURL, http.DefaultClient),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Name returns the identifier of this generator.
func (g *OllamaGenerator) Name() string { return "ollama" }

// Generate submits the prompt and accumulates the streamed response.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Options: map[string]any{
			"temperature": 0.1,
		},
	}
	var out strings.Builder
	err := g.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, werr := out.WriteString(resp.Response)
		return werr
	})
	if err != nil {
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("ollama returned an empty response")
	}
	return out.String(), nil
}
