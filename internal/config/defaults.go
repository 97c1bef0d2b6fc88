package config

import "time"

// Provider names accepted in the embedding and generation sections.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderONNX   = "onnx"
	ProviderMock   = "mock"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 50 << 20
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/docqa.db"
	}
	if cfg.Storage.HistoryIndexPath == "" {
		cfg.Storage.HistoryIndexPath = "./data/history.bleve"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case ProviderGemini:
			cfg.Embedding.Model = "text-embedding-004"
		case ProviderOpenAI:
			cfg.Embedding.Model = "text-embedding-ada-002"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case ProviderOpenAI:
			cfg.Embedding.Dimensions = 1536
		case ProviderGemini:
			cfg.Embedding.Dimensions = 768
		default:
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.MaxInputChars == 0 {
		cfg.Embedding.MaxInputChars = 8000
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Workers == 0 {
		cfg.Embedding.Workers = 4
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.ModelPath == "" && cfg.Embedding.Provider == ProviderONNX {
		cfg.Embedding.ModelPath = "./data/models/all-MiniLM-L6-v2.onnx"
	}

	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = ProviderOpenAI
	}
	if cfg.Generation.Model == "" {
		switch cfg.Generation.Provider {
		case ProviderGemini:
			cfg.Generation.Model = "gemini-2.0-flash"
		default:
			cfg.Generation.Model = "gpt-4"
		}
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.1
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 500
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 60 * time.Second
	}
	if cfg.Generation.MaxRetries == 0 {
		cfg.Generation.MaxRetries = 2
	}
	if cfg.Generation.RetryDelay == 0 {
		cfg.Generation.RetryDelay = time.Second
	}

	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = 1000
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 3
	}
	if cfg.Pipeline.QuestionWorkers == 0 {
		cfg.Pipeline.QuestionWorkers = 1
	}
	if cfg.Pipeline.JobTimeout == 0 {
		cfg.Pipeline.JobTimeout = 10 * time.Minute
	}
	if cfg.Pipeline.MaxDocumentSize == 0 {
		cfg.Pipeline.MaxDocumentSize = 50 << 20
	}

	if cfg.Webhook.Timeout == 0 {
		cfg.Webhook.Timeout = 10 * time.Second
	}
	if cfg.Webhook.MaxRetries == 0 {
		cfg.Webhook.MaxRetries = 3
	}
	if cfg.Webhook.RetryDelay == 0 {
		cfg.Webhook.RetryDelay = time.Second
	}

	if cfg.Retention.MaxAge == 0 {
		cfg.Retention.MaxAge = 24 * time.Hour
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = "@hourly"
	}
}
