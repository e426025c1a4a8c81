package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *BaseClient {
	return NewBaseClient(BaseClientConfig{
		ServiceName: "test-service",
		BaseURL:     url + "/",
		Timeout:     time.Second,
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
	})
}

func TestBaseClient_GetRetriesOnUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	var out map[string]string
	require.NoError(t, c.Get(context.Background(), "/health", &out))
	assert.Equal(t, "healthy", out["status"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestBaseClient_PostDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.Post(context.Background(), "/things", map[string]string{"a": "b"}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBaseClient_DecodesUnifiedError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error_code":"CONVERSATION_NOT_FOUND","message":"conversation not found"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.Get(context.Background(), "/api/v1/conversations/x/messages", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "CONVERSATION_NOT_FOUND")
	// 4xx 不重试
	assert.Equal(t, int32(1), calls.Load())
}

func TestBaseClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.Delete(context.Background(), "/x")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
	assert.Empty(t, apiErr.Code)
}

func TestBaseClient_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 5; i++ {
		_ = c.Post(context.Background(), "/fail", nil, nil)
	}
	assert.Equal(t, gobreaker.StateOpen, c.GetCircuitBreakerState())

	err := c.Post(context.Background(), "/fail", nil, nil)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), calls.Load())
}

func TestBaseClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 10; i++ {
		_ = c.Post(context.Background(), "/bad", nil, nil)
	}
	assert.Equal(t, gobreaker.StateClosed, c.GetCircuitBreakerState())
}

func TestBaseClient_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	assert.Equal(t, srv.URL, c.GetBaseURL())
	assert.Equal(t, "test-service", c.GetServiceName())
	assert.Error(t, c.HealthCheck(context.Background()))
}
