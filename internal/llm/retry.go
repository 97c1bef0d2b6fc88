// Package llm adapts hosted model APIs (OpenAI, Gemini) to the embedding and
// answer generation interfaces.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hyperjump/docqa/pkg/utils"
)

// retryPolicy retries calls that fail with rate limits, server errors or transport errors.
type retryPolicy struct {
	maxRetries int
	delay      time.Duration
	timeout    time.Duration
	logger     *zap.Logger
}

// do runs call up to maxRetries+1 times. Each attempt gets its own timeout when one is set.
func (p retryPolicy) do(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			if err := utils.Sleep(ctx, utils.CalculateBackoff(p.delay, attempt)); err != nil {
				return err
			}
		}
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.timeout)
		}
		err := call(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		p.logger.Debug("retrying model call",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, p.maxRetries+1, lastErr)
}

// retryable reports whether err is worth another attempt: 429, 5xx, or no HTTP status at all.
func retryable(err error) bool {
	if errors.Is(err, errEmptyResponse) {
		return true
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var genaiErr genai.APIError
	var genaiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	case errors.As(err, &genaiErr):
		status = genaiErr.Code
	case errors.As(err, &genaiErrPtr):
		status = genaiErrPtr.Code
	}
	if status == 0 {
		return !errors.Is(err, context.Canceled)
	}
	return status == http.StatusTooManyRequests || status >= 500
}

var errEmptyResponse = errors.New("empty response from model")
