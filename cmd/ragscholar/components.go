package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"ragscholar/internal/chunker"
	"ragscholar/internal/config"
	"ragscholar/internal/domain"
	"ragscholar/internal/embedding"
	"ragscholar/internal/embedding/openai"
	"ragscholar/internal/embedding/tfidf"
	"ragscholar/internal/llm"
	"ragscholar/internal/llm/gemini"
	llmopenai "ragscholar/internal/llm/openai"
	"ragscholar/internal/loader"
	"ragscholar/internal/logging"
	"ragscholar/internal/service"
	"ragscholar/internal/summarizer"
)

type app struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	closer io.Closer
	loader *loader.Loader
	svc    *service.RAGService
}

// setup loads configuration and assembles the service. logOut receives log
// records unless the config names a log file.
func setup(opts *rootOptions, logOut io.Writer) (*app, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if opts.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(opts.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, closer, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}, logOut)
	if err != nil {
		return nil, err
	}

	a, err := assemble(cfg, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	a.closer = closer
	return a, nil
}

func assemble(cfg *config.AppConfig, logger *slog.Logger) (*app, error) {
	var ch domain.Chunker
	chunkSize := cfg.Chunker.ChunkSize
	switch cfg.Chunker.Type {
	case "word", "":
		ch = chunker.NewWordChunker(cfg.Chunker.ChunkSize)
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
		chunkSize = cfg.Chunker.SentencesPerChunk
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var newEmbedder service.EmbedderFactory
	var modelName string
	switch cfg.Embedder.Type {
	case "tfidf", "":
		modelName = "tfidf"
		newEmbedder = func() (domain.Embedder, error) {
			return embedding.NewBatcher(tfidf.NewEmbedder(), cfg.Embedder.BatchSize, cfg.Embedder.Parallelism), nil
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv:  cfg.Embedder.OpenAI.APIKeyEnv,
			Model:      cfg.Embedder.OpenAI.Model,
			Timeout:    time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Embedder.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		modelName = client.Name()
		emb := embedding.NewBatcher(client, cfg.Embedder.BatchSize, cfg.Embedder.Parallelism)
		newEmbedder = func() (domain.Embedder, error) { return emb, nil }
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	completer, err := newCompleter(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	ld := loader.New()
	svc := service.NewRAGService(ld, ch, newEmbedder, completer, sum, service.Options{
		TopK:                cfg.Retrieval.TopK,
		MaxHistoryTokens:    cfg.History.MaxTokens,
		MaxHistoryPairs:     cfg.History.MaxPairs,
		Instruction:         cfg.Prompt.Instruction,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		ModelName:           modelName,
		ChunkSize:           chunkSize,
	}, logger)
	return &app{cfg: cfg, logger: logger, loader: ld, svc: svc}, nil
}

func newCompleter(cfg config.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	var (
		c    llm.Completer
		name string
	)
	switch cfg.Type {
	case "gemini", "":
		gc := cfg.Gemini
		if gc == nil {
			gc = &config.GeminiConfig{}
		}
		client, err := gemini.NewClient(gemini.Config{
			BaseURL:    gc.BaseURL,
			APIKeyEnv:  gc.APIKeyEnv,
			Model:      gc.Model,
			Timeout:    timeout,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client init failed: %w", err)
		}
		c, name = client, "gemini"
	case "openai":
		oc := cfg.OpenAI
		if oc == nil {
			oc = &config.OpenAIChatConfig{}
		}
		client, err := llmopenai.NewClient(llmopenai.Config{
			BaseURL:     oc.BaseURL,
			APIKeyEnv:   oc.APIKeyEnv,
			Model:       oc.Model,
			Timeout:     timeout,
			MaxRetries:  cfg.MaxRetries,
			Temperature: oc.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("openai chat client init failed: %w", err)
		}
		c, name = client, "openai:"+client.Model()
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.Type)
	}
	return llm.WithLogging(llm.WithTimeout(c, timeout), name, logger), nil
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
