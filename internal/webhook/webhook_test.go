package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(retries int) *Client {
	return NewClient(WithRetries(retries, time.Millisecond))
}

func TestDeliver_Success(t *testing.T) {
	var got map[string]any
	var contentType atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType.Store(r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(2).Deliver(context.Background(), srv.URL, map[string]any{
		"webhook_id": "wh-1",
		"status":     "completed",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType.Load())
	assert.Equal(t, "wh-1", got["webhook_id"])
}

func TestDeliver_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newTestClient(3).Deliver(context.Background(), srv.URL, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliver_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient(2).Deliver(context.Background(), srv.URL, map[string]string{})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "down", se.Body)
}

func TestDeliver_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestClient(3).Deliver(context.Background(), srv.URL, map[string]string{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeliver_TooManyRequestsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(1).Deliver(context.Background(), srv.URL, map[string]string{}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDeliver_TransportErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := newTestClient(1).Deliver(context.Background(), url, map[string]string{})
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestDeliver_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewClient(WithRetries(5, time.Hour)).Deliver(ctx, srv.URL, map[string]string{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeliver_UnmarshalablePayload(t *testing.T) {
	err := newTestClient(0).Deliver(context.Background(), "http://127.0.0.1:1", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal")
}
