// Package webhook delivers job results to caller-supplied callback URLs.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/pkg/utils"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// StatusError reports a non-2xx callback response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("callback returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("callback returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the callback may succeed on a later attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client posts JSON payloads with retries.
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithRetries sets the number of retries after the first attempt and the base backoff delay.
func WithRetries(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = utils.OrNop(l) }
}

// NewClient creates a webhook client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver POSTs payload as JSON to url. Transport errors, 429 and 5xx responses are
// retried with exponential backoff; other 4xx responses fail immediately.
func (c *Client) Deliver(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := utils.CalculateBackoff(c.retryDelay, attempt)
			c.logger.Debug("retrying webhook delivery",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			if err := utils.Sleep(ctx, wait); err != nil {
				return fmt.Errorf("webhook delivery cancelled: %w", err)
			}
		}

		lastErr = c.post(ctx, url, body)
		if lastErr == nil {
			c.logger.Info("webhook delivered", zap.String("url", url), zap.Int("attempts", attempt+1))
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("webhook delivery cancelled: %w", ctx.Err())
		}
		var se *StatusError
		if errors.As(lastErr, &se) && !se.Retryable() {
			break
		}
	}
	return fmt.Errorf("webhook delivery to %s failed: %w", url, lastErr)
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "docqa-webhook/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: utils.Truncate(string(bytes.TrimSpace(snippet)), 200)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
