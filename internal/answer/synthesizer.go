package answer

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 500
)

// Answer is a synthesized answer with its local confidence score.
type Answer struct {
	Text       string
	Confidence float64
	TokensUsed int
}

// Synthesizer turns retrieved chunks into an answer using a Generator.
type Synthesizer struct {
	generator   Generator
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the synthesizer's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) Option {
	return func(s *Synthesizer) {
		if t >= 0 {
			s.temperature = t
		}
	}
}

// WithMaxTokens overrides the completion token limit.
func WithMaxTokens(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewSynthesizer creates a synthesizer that delegates generation to g.
func NewSynthesizer(g Generator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		generator:   g,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// Synthesize answers question from chunks. Any generator failure or an empty
// completion is returned as *GenerationError.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []string) (*Answer, error) {
	contextText := BuildContext(chunks)
	gen, err := s.generator.Generate(ctx, Request{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(question, contextText),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		var ge *GenerationError
		if errors.As(err, &ge) {
			return nil, err
		}
		return nil, &GenerationError{Err: err}
	}
	text := strings.TrimSpace(gen.Text)
	if text == "" {
		return nil, &GenerationError{Err: errors.New("model returned an empty completion")}
	}
	a := &Answer{
		Text:       text,
		Confidence: Confidence(question, contextText, text),
		TokensUsed: gen.TokensUsed,
	}
	s.logger.Debug("answer synthesized",
		zap.Int("chunks", len(chunks)),
		zap.Int("tokens", a.TokensUsed),
		zap.Float64("confidence", a.Confidence))
	return a, nil
}
