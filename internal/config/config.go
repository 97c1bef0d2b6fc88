// Package config provides configuration loading and structs for the docqa service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Retention  RetentionConfig  `yaml:"retention"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIToken is the bearer token required on API routes. Empty disables auth.
	APIToken       string        `yaml:"api_token"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// StorageConfig holds paths for the job database and the answer history index.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	HistoryIndexPath string `yaml:"history_index_path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of openai, gemini, onnx, mock.
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	MaxInputChars int    `yaml:"max_input_chars"`
	CacheSize     int    `yaml:"cache_size"`
	Workers       int    `yaml:"workers"`
	ModelPath     string `yaml:"model_path"`
	MaxTokens     int    `yaml:"max_tokens"`
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
}

// GenerationConfig selects and configures the answer generation model.
type GenerationConfig struct {
	// Provider is one of openai, gemini.
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
}

// PipelineConfig holds chunking, retrieval and job settings.
type PipelineConfig struct {
	ChunkSize       int           `yaml:"chunk_size"`
	TopK            int           `yaml:"top_k"`
	QuestionWorkers int           `yaml:"question_workers"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	MaxDocumentSize int64         `yaml:"max_document_bytes"`
}

// WebhookConfig holds callback delivery settings.
type WebhookConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// RetentionConfig controls the periodic cleanup of old jobs.
type RetentionConfig struct {
	Enabled  bool          `yaml:"enabled"`
	MaxAge   time.Duration `yaml:"max_age"`
	Schedule string        `yaml:"schedule"`
}

// Load reads and parses the config file at path, applies defaults and environment
// overrides, expands paths, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(&cfg, filepath.Dir(path))
}

// LoadOrDefault behaves like Load but returns the default configuration when no
// file exists at path. Relative storage paths then resolve against the working directory.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	wd, wdErr := os.Getwd()
	if wdErr != nil {
		wd = "."
	}
	return finish(&Config{}, wd)
}

func finish(cfg *Config, configDir string) (*Config, error) {
	ApplyDefaults(cfg)
	ApplyEnv(cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.HistoryIndexPath = expandPath(cfg.Storage.HistoryIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides secrets from the environment. OPENAI_API_KEY (or OPENAI_KEY)
// and GEMINI_API_KEY fill the matching provider key when the file leaves it empty;
// DOCQA_API_TOKEN always wins over the file.
func ApplyEnv(cfg *Config) {
	openaiKey := firstEnv("OPENAI_API_KEY", "OPENAI_KEY")
	geminiKey := firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	providerKey := func(provider string) string {
		switch provider {
		case ProviderOpenAI:
			return openaiKey
		case ProviderGemini:
			return geminiKey
		}
		return ""
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = providerKey(cfg.Embedding.Provider)
	}
	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey = providerKey(cfg.Generation.Provider)
	}
	if tok := os.Getenv("DOCQA_API_TOKEN"); tok != "" {
		cfg.Server.APIToken = tok
	}
}

// Validate reports configuration values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderONNX, ProviderMock:
	default:
		return fmt.Errorf("invalid embedding provider %q (supported: openai, gemini, onnx, mock)", c.Embedding.Provider)
	}
	switch c.Generation.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("invalid generation provider %q (supported: openai, gemini)", c.Generation.Provider)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation temperature must be between 0 and 2, got %v", c.Generation.Temperature)
	}
	if c.Pipeline.ChunkSize <= 0 || c.Pipeline.TopK <= 0 || c.Pipeline.QuestionWorkers <= 0 {
		return fmt.Errorf("pipeline chunk_size, top_k and question_workers must be positive")
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// expandPath converts a path to absolute. "~/" paths are relative to the home
// directory; other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
