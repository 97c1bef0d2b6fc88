package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/keyword"
	"github.com/hyperjump/docqa/internal/models"
)

// Client talks to a running docqa server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the status of job id.
func (c *Client) Status(ctx context.Context, id string) (*models.ProcessingStatus, error) {
	var st models.ProcessingStatus
	if err := c.get(ctx, "/api/v1/status/"+url.PathEscape(id), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Result fetches the result of job id.
func (c *Client) Result(ctx context.Context, id string) (*models.ProcessingResult, error) {
	var res models.ProcessingResult
	if err := c.get(ctx, "/api/v1/results/"+url.PathEscape(id), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SearchHistory searches the server's answer history.
func (c *Client) SearchHistory(ctx context.Context, query string, limit int) ([]*keyword.HistoryHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	var out struct {
		Results []*keyword.HistoryHit `json:"results"`
	}
	if err := c.get(ctx, "/api/v1/history/search?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) get(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
