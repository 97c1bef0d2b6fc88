// Package answer builds grounded prompts from retrieved chunks, delegates
// generation to a language model and scores the result.
package answer

import (
	"context"
	"fmt"
)

// Request is one completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Generation is a completed model response.
type Generation struct {
	Text       string
	TokensUsed int
}

// Generator produces text from a prompt. Implementations live in the llm package.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Generation, error)
}

// GenerationError reports that the model could not produce an answer.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
