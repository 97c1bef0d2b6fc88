package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/answer"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/embedding"
)

const (
	embeddingMaxRetries = 2
	embeddingRetryDelay = time.Second
	embeddingTimeout    = 30 * time.Second
)

// NewEmbedder builds the configured embedding provider wrapped in an LRU cache.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (embedding.Embedder, error) {
	var (
		e   embedding.Embedder
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		e, err = NewOpenAIClient(OpenAIConfig{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			EmbeddingModel: cfg.Model,
			Dimensions:     cfg.Dimensions,
			MaxRetries:     embeddingMaxRetries,
			RetryDelay:     embeddingRetryDelay,
			Timeout:        embeddingTimeout,
		}, logger)
	case config.ProviderGemini:
		e, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			EmbeddingModel: cfg.Model,
			Dimensions:     cfg.Dimensions,
			MaxRetries:     embeddingMaxRetries,
			RetryDelay:     embeddingRetryDelay,
			Timeout:        embeddingTimeout,
		}, logger)
	case config.ProviderONNX:
		e, err = embedding.NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case config.ProviderMock:
		e = embedding.NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s embedder: %w", cfg.Provider, err)
	}
	if cfg.CacheSize <= 0 {
		return e, nil
	}
	cached, err := embedding.NewCachedEmbedder(e, cfg.CacheSize)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	return cached, nil
}

// NewGenerator builds the configured answer generation provider.
func NewGenerator(ctx context.Context, cfg config.GenerationConfig, logger *zap.Logger) (answer.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err := NewOpenAIClient(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			ChatModel:  cfg.Model,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Timeout:    cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai generator: %w", err)
		}
		return c, nil
	case config.ProviderGemini:
		c, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			ChatModel:  cfg.Model,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Timeout:    cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini generator: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Provider)
	}
}
