package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hyperjump/docqa/internal/answer"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/pkg/utils"
)

const (
	DefaultGeminiChatModel      = "gemini-2.0-flash"
	DefaultGeminiEmbeddingModel = "text-embedding-004"
	defaultGeminiDimensions     = 768
)

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Dimensions     int
	MaxRetries     int
	RetryDelay     time.Duration
	Timeout        time.Duration
}

// GeminiClient implements embedding.Embedder and answer.Generator over the Gemini API.
type GeminiClient struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	dimensions     int
	retry          retryPolicy
}

// NewGeminiClient creates a client for the Gemini developer API.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY)")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultGeminiChatModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultGeminiEmbeddingModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultGeminiDimensions
	}
	return &GeminiClient{
		client:         client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
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
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one request, one content per text.
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	dims := int32(c.dimensions)
	var out [][]float32
	err := c.retry.do(ctx, "gemini embeddings", func(ctx context.Context) error {
		resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{
			OutputDimensionality: &dims,
		})
		if err != nil {
			return err
		}
		if len(resp.Embeddings) != len(texts) {
			return fmt.Errorf("%w: got %d embeddings for %d inputs", errEmptyResponse, len(resp.Embeddings), len(texts))
		}
		out = make([][]float32, len(texts))
		for i, e := range resp.Embeddings {
			out[i] = e.Values
		}
		return nil
	})
	if err != nil {
		return nil, &embedding.EmbeddingError{Provider: "gemini", Err: err}
	}
	return out, nil
}

// Dimensions returns the requested output dimensionality.
func (c *GeminiClient) Dimensions() int {
	return c.dimensions
}

// Close is a no-op; the client holds no resources.
func (c *GeminiClient) Close() error {
	return nil
}

// Generate runs a single-turn content generation with req.System as the system instruction.
func (c *GeminiClient) Generate(ctx context.Context, req answer.Request) (*answer.Generation, error) {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	var gen *answer.Generation
	err := c.retry.do(ctx, "gemini generate content", func(ctx context.Context) error {
		resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, genai.Text(req.Prompt), gc)
		if err != nil {
			return err
		}
		text := resp.Text()
		if text == "" {
			return errEmptyResponse
		}
		tokens := 0
		if resp.UsageMetadata != nil {
			tokens = int(resp.UsageMetadata.TotalTokenCount)
		}
		gen = &answer.Generation{Text: text, TokensUsed: tokens}
		return nil
	})
	if err != nil {
		return nil, &answer.GenerationError{Err: err}
	}
	return gen, nil
}
