package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/answer"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/pkg/utils"
)

const (
	DefaultOpenAIChatModel      = "gpt-4"
	DefaultOpenAIEmbeddingModel = string(openai.AdaEmbeddingV2)
	defaultOpenAIDimensions     = 1536
)

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Dimensions     int
	MaxRetries     int
	RetryDelay     time.Duration
	Timeout        time.Duration
}

// OpenAIClient implements embedding.Embedder and answer.Generator over the OpenAI API.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	dimensions     int
	retry          retryPolicy
}

// NewOpenAIClient creates a client. BaseURL may point at any OpenAI-compatible endpoint.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultOpenAIChatModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultOpenAIEmbeddingModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultOpenAIDimensions
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      cfg.ChatModel,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		dimensions:     cfg.Dimensions,
		retry: retryPolicy{
			maxRetries: cfg.MaxRetries,
			delay:      cfg.RetryDelay,
			timeout:    cfg.Timeout,
			logger:     utils.OrNop(logger),
		},
	}, nil
}

// Embed returns the embedding of text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one request. Results are ordered by the response's index field.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var resp openai.EmbeddingResponse
	err := c.retry.do(ctx, "openai embeddings", func(ctx context.Context) error {
		r, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: c.embeddingModel,
		})
		if err != nil {
			return err
		}
		if len(r.Data) != len(texts) {
			return fmt.Errorf("%w: got %d embeddings for %d inputs", errEmptyResponse, len(r.Data), len(texts))
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, &embedding.EmbeddingError{Provider: "openai", Err: err}
	}
	out := make([][]float32, len(texts))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		out[idx] = d.Embedding
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}

// Close is a no-op; the client holds no resources.
func (c *OpenAIClient) Close() error {
	return nil
}

// Generate runs a chat completion with a system and a user message.
func (c *OpenAIClient) Generate(ctx context.Context, req answer.Request) (*answer.Generation, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	var gen *answer.Generation
	err := c.retry.do(ctx, "openai chat completion", func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.chatModel,
			Messages:    messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errEmptyResponse
		}
		gen = &answer.Generation{
			Text:       resp.Choices[0].Message.Content,
			TokensUsed: resp.Usage.TotalTokens,
		}
		return nil
	})
	if err != nil {
		return nil, &answer.GenerationError{Err: err}
	}
	return gen, nil
}
