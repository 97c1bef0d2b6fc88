package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/answer"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/fetch"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/keyword"
	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/pipeline"
	"github.com/hyperjump/docqa/internal/service"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/internal/vector"
	"github.com/hyperjump/docqa/internal/webhook"
	"github.com/hyperjump/docqa/pkg/utils"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "/usr/local/etc/docqa/config.yaml"

// loadConfig loads config from path. When path is the default and a config.yaml
// exists in the working directory, that file is used instead. A missing default
// file yields the built-in defaults. Returns the config and the path that was loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == DefaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Engine is the question-answering pipeline without persistence.
type Engine struct {
	Embedder     embedding.Embedder
	Orchestrator *pipeline.Orchestrator
	Loader       *indexer.Loader
}

// Close releases the embedder.
func (e *Engine) Close() {
	if e.Embedder != nil {
		_ = e.Embedder.Close()
	}
}

func newEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger, reporter pipeline.StatusReporter) (*Engine, error) {
	logger = utils.OrNop(logger)
	embedder, err := llm.NewEmbedder(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}
	generator, err := llm.NewGenerator(ctx, cfg.Generation, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	factory := vector.NewFactory(embedder, cfg.Embedding.Workers, cfg.Embedding.MaxInputChars, logger)
	synth := answer.NewSynthesizer(generator,
		answer.WithLogger(logger),
		answer.WithTemperature(cfg.Generation.Temperature),
		answer.WithMaxTokens(cfg.Generation.MaxTokens),
	)
	orch := pipeline.NewOrchestrator(indexer.NewChunker(cfg.Pipeline.ChunkSize), factory, synth,
		pipeline.WithLogger(logger),
		pipeline.WithReporter(reporter),
		pipeline.WithTopK(cfg.Pipeline.TopK),
		pipeline.WithQuestionWorkers(cfg.Pipeline.QuestionWorkers),
	)
	downloader := fetch.NewDownloader(
		fetch.WithMaxBytes(cfg.Pipeline.MaxDocumentSize),
		fetch.WithLogger(logger),
	)
	loader := indexer.NewLoader(downloader, extract.NewExtractor(), indexer.WithLogger(logger))

	logger.Info("pipeline initialized",
		zap.String("embedding", cfg.Embedding.Provider),
		zap.Int("dimensions", embedder.Dimensions()),
		zap.String("generation", cfg.Generation.Provider),
		zap.String("model", cfg.Generation.Model))
	return &Engine{Embedder: embedder, Orchestrator: orch, Loader: loader}, nil
}

// Components holds initialized services for the server.
type Components struct {
	Store   *storage.SQLiteStorage
	History *keyword.BleveHistory
	Engine  *Engine
	Service *service.Service
}

// Close shuts the service down and releases every component.
func (c *Components) Close() {
	if c.Service != nil {
		c.Service.Close()
	}
	if c.Engine != nil {
		c.Engine.Close()
	}
	if c.History != nil {
		_ = c.History.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Store = store

	history, err := keyword.NewBleveHistory(cfg.Storage.HistoryIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize history index: %w", err)
	}
	c.History = history

	engine, err := newEngine(ctx, cfg, logger, pipeline.NewStoreReporter(store, logger))
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Engine = engine

	notifier := webhook.NewClient(
		webhook.WithTimeout(cfg.Webhook.Timeout),
		webhook.WithRetries(cfg.Webhook.MaxRetries, cfg.Webhook.RetryDelay),
		webhook.WithLogger(logger),
	)
	c.Service = service.NewService(store, engine.Orchestrator, engine.Loader, history, notifier, cfg.Pipeline.JobTimeout, logger)
	return c, nil
}
