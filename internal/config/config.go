package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig configures how chapter content is split into chunks.
// ChunkOverlap is accepted for compatibility with the content pipeline
// configuration; chunk boundaries are hard splits.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// GeminiEmbedderConfig holds configuration for the Gemini embedder.
type GeminiEmbedderConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible
// embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the embedding provider.
// Type "none" runs the service without an embedding capability.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	Gemini    *GeminiEmbedderConfig `yaml:"gemini,omitempty"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// GeminiGeneratorConfig holds configuration for the Gemini generator.
type GeminiGeneratorConfig struct {
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// OllamaGeneratorConfig holds configuration for the Ollama generator.
type OllamaGeneratorConfig struct {
	Host        string `yaml:"host"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GenerationConfig lists the generator chain in fallback order and the
// per-provider settings.
type GenerationConfig struct {
	Providers   []string               `yaml:"providers"`
	TimeoutSecs int                    `yaml:"timeout_secs"`
	Gemini      *GeminiGeneratorConfig `yaml:"gemini,omitempty"`
	Ollama      *OllamaGeneratorConfig `yaml:"ollama,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RetrievalConfig holds the ranking knobs.
type RetrievalConfig struct {
	MaxChunks          int     `yaml:"max_chunks"`
	MinConfidenceScore float64 `yaml:"min_confidence_score"`
}

// SummaryConfig configures the corpus digest.
type SummaryConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	ContentDir   string `yaml:"content_dir"`
	SnapshotPath string `yaml:"snapshot_path"`
	// RequireProviders makes a missing embedding or generation provider
	// a fatal startup error instead of a silent degraded deployment.
	RequireProviders bool              `yaml:"require_providers"`
	Chunker          ChunkerConfig     `yaml:"chunker"`
	Embedder         EmbedderConfig    `yaml:"embedder"`
	Generation       GenerationConfig  `yaml:"generation"`
	VectorStore      VectorStoreConfig `yaml:"vector_store"`
	Retrieval        RetrievalConfig   `yaml:"retrieval"`
	Summary          SummaryConfig     `yaml:"summary"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then the user config path. If
// neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as
// needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate enforces the fatal startup conditions. Deployments with
// require_providers must configure both an embedding and a generation
// capability.
func (c *AppConfig) Validate() error {
	if c.Retrieval.MinConfidenceScore < 0 || c.Retrieval.MinConfidenceScore > 1 {
		return fmt.Errorf("min_confidence_score %.2f outside [0,1]", c.Retrieval.MinConfidenceScore)
	}
	if !c.RequireProviders {
		return nil
	}
	if c.Embedder.Type == "" || c.Embedder.Type == "none" {
		return errors.New("require_providers is set but no embedder is configured")
	}
	if len(c.Generation.Providers) == 0 {
		return errors.New("require_providers is set but no generation providers are configured")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "textbook-rag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		ContentDir:   "docs",
		SnapshotPath: "data/snapshot.json",
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 512
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 64
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 768
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Retrieval.MaxChunks == 0 {
		cfg.Retrieval.MaxChunks = 5
	}
	if cfg.Retrieval.MinConfidenceScore == 0 {
		cfg.Retrieval.MinConfidenceScore = 0.5
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = 30
	}
	if cfg.Summary.MaxSentences == 0 {
		cfg.Summary.MaxSentences = 5
	}
}
