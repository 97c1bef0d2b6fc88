package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"server error", fmt.Errorf("wrapped: %w", &openai.APIError{HTTPStatusCode: 502}), true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"unauthorized", &openai.RequestError{HTTPStatusCode: 401, Err: errors.New("x")}, false},
		{"transport", errors.New("connection reset"), true},
		{"empty", errEmptyResponse, true},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}

func TestRetryPolicy_Do(t *testing.T) {
	p := retryPolicy{maxRetries: 2, delay: time.Millisecond, logger: zap.NewNop()}
	calls := 0
	err := p.do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = p.do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return errors.New("always")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}
