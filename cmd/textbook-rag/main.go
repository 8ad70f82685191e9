package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"

	"textbook-rag/internal/chunker"
	"textbook-rag/internal/composer"
	"textbook-rag/internal/config"
	"textbook-rag/internal/domain"
	emgemini "textbook-rag/internal/embedding/gemini"
	emopenai "textbook-rag/internal/embedding/openai"
	"textbook-rag/internal/embedding/tfidf"
	"textbook-rag/internal/generation"
	"textbook-rag/internal/retriever"
	"textbook-rag/internal/service"
	"textbook-rag/internal/summarizer"
	"textbook-rag/internal/translate"
	"textbook-rag/internal/tui"
	"textbook-rag/internal/vectorstore/memory"
	"textbook-rag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, query string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/textbook-rag/config.yaml if not provided)")
	flag.StringVar(&query, "query", "", "Answer a single query and exit instead of starting the UI")
	flag.Parse()

	logger := log.Logger{
		Level:  log.InfoLevel,
		Writer: &log.ConsoleWriter{ColorOutput: true, Writer: os.Stderr},
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	contentDir := cfg.ContentDir
	if args := flag.Args(); len(args) > 0 {
		contentDir = args[0]
	}

	ctx := context.Background()

	embedder := buildEmbedder(ctx, cfg, logger)
	store := buildStore(cfg, embedder, logger)
	generators := buildGenerators(ctx, cfg, logger)

	genTimeout := time.Duration(cfg.Generation.TimeoutSecs) * time.Second
	retr := retriever.New(embedder, store, cfg.Retrieval.MinConfidenceScore, genTimeout, logger)
	comp := composer.New(generators, genTimeout, logger)

	svc := service.New(service.Deps{
		Chunker:             chunker.NewParagraphChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap),
		Embedder:            embedder,
		Store:               store,
		Retriever:           retr,
		Composer:            comp,
		Translator:          translate.NewStaticTranslator(),
		Summarizer:          summarizer.NewFrequency(),
		MaxChunks:           cfg.Retrieval.MaxChunks,
		SummaryMaxSentences: cfg.Summary.MaxSentences,
		Logger:              logger,
	})

	summary, err := svc.Ingest(ctx, contentDir, cfg.SnapshotPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("ingest failed")
	}

	if query != "" {
		result, err := svc.AnswerQuery(ctx, query, domain.QueryOptions{})
		if err != nil {
			logger.Fatal().Err(err).Msg("query failed")
		}
		fmt.Println(result.Answer)
		fmt.Printf("\nconfidence=%.2f chunks=%d sources=%v query_id=%s\n",
			result.Confidence, result.ChunksUsed, result.SourceIDs, result.QueryID)
		return
	}

	m := tui.New(svc, summary)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Fatal().Err(err).Msg("ui failed")
	}
}

// buildEmbedder assembles the configured embedding capability. A failed
// construction is fatal only when require_providers is set; otherwise the
// service starts without an embedder and serves lexical fallback results.
func buildEmbedder(ctx context.Context, cfg *config.AppConfig, logger log.Logger) domain.Embedder {
	var embedder domain.Embedder
	var err error
	switch cfg.Embedder.Type {
	case "none":
		return nil
	case "tfidf":
		embedder = tfidf.NewEmbedder()
	case "gemini":
		gcfg := cfg.Embedder.Gemini
		if gcfg == nil {
			gcfg = &config.GeminiEmbedderConfig{}
		}
		embedder, err = emgemini.NewEmbedder(ctx, emgemini.Config{
			APIKeyEnv: gcfg.APIKeyEnv,
			Model:     gcfg.Model,
			Dimension: cfg.Embedder.Dimension,
			Timeout:   time.Duration(gcfg.TimeoutSecs) * time.Second,
		})
	case "openai":
		ocfg := cfg.Embedder.OpenAI
		if ocfg == nil {
			ocfg = &config.OpenAIEmbedderConfig{}
		}
		embedder, err = emopenai.NewClient(emopenai.Config{
			BaseURL:   ocfg.BaseURL,
			APIKeyEnv: ocfg.APIKeyEnv,
			Model:     ocfg.Model,
			Dimension: cfg.Embedder.Dimension,
			BatchSize: ocfg.BatchSize,
			Timeout:   time.Duration(ocfg.TimeoutSecs) * time.Second,
		})
	default:
		logger.Fatal().Str("type", cfg.Embedder.Type).Msg("unknown embedder")
	}
	if err != nil {
		if cfg.RequireProviders {
			logger.Fatal().Err(err).Msg("embedder required but unavailable")
		}
		logger.Warn().Err(err).Msg("embedder unavailable, running with lexical fallback")
		return nil
	}
	return embedder
}

func buildStore(cfg *config.AppConfig, embedder domain.Embedder, logger log.Logger) domain.VectorStore {
	if embedder == nil {
		return nil
	}
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStore()
	case "qdrant":
		qcfg := cfg.VectorStore.Qdrant
		if qcfg == nil {
			logger.Fatal().Msg("qdrant config missing")
		}
		store, err := qdrant.NewStore(qdrant.Config{
			Host:       qcfg.Host,
			Port:       qcfg.Port,
			Collection: qcfg.Collection,
		})
		if err != nil {
			if cfg.RequireProviders {
				logger.Fatal().Err(err).Msg("vector store required but unavailable")
			}
			logger.Warn().Err(err).Msg("qdrant unavailable, falling back to in-memory store")
			return memory.NewStore()
		}
		return store
	default:
		logger.Fatal().Str("type", cfg.VectorStore.Type).Msg("unknown vector store")
	}
	return nil
}

func buildGenerators(ctx context.Context, cfg *config.AppConfig, logger log.Logger) []domain.Generator {
	var generators []domain.Generator
	for _, name := range cfg.Generation.Providers {
		var gen domain.Generator
		var err error
		switch name {
		case "gemini":
			gcfg := cfg.Generation.Gemini
			if gcfg == nil {
				gcfg = &config.GeminiGeneratorConfig{}
			}
			gen, err = generation.NewGemini(ctx, generation.GeminiConfig{
				APIKeyEnv:   gcfg.APIKeyEnv,
				Model:       gcfg.Model,
				Temperature: gcfg.Temperature,
				Timeout:     time.Duration(gcfg.TimeoutSecs) * time.Second,
			})
		case "ollama":
			ocfg := cfg.Generation.Ollama
			if ocfg == nil {
				ocfg = &config.OllamaGeneratorConfig{}
			}
			gen, err = generation.NewOllama(generation.OllamaConfig{
				Host:    ocfg.Host,
				Model:   ocfg.Model,
				Timeout: time.Duration(ocfg.TimeoutSecs) * time.Second,
			})
		default:
			logger.Fatal().Str("provider", name).Msg("unknown generation provider")
		}
		if err != nil {
			if cfg.RequireProviders {
				logger.Fatal().Err(err).Str("provider", name).Msg("generator required but unavailable")
			}
			logger.Warn().Err(err).Str("provider", name).Msg("generator unavailable, skipping")
			continue
		}
		generators = append(generators, gen)
	}
	return generators
}
