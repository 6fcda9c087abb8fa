// internal/device/client_test.go
package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droid-orchestrator/internal/common/config"
	"droid-orchestrator/internal/common/logger"
)

func newTestClient(t *testing.T, baseURL string, maxRetries int) *PortalClient {
	t.Helper()
	return NewPortalClient(config.PortalConfig{
		BaseURL:    baseURL,
		MaxRetries: maxRetries,
		RetryDelay: 1, // keep test backoff negligible
	}, logger.NewTestLogger(t))
}

func TestRunSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/agent/run", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req["goal"], "laptop")

		json.NewEncoder(w).Encode(map[string]string{"output": `[{"title":"X","price":"1","rating":"4"}]`})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	out, err := client.Run(context.Background(), "Open Amazon. Search for 'laptop'.")
	require.NoError(t, err)
	assert.Contains(t, out, `"title":"X"`)
}

func TestRunRetriesOn5xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"output": "ok"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	out, err := client.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRunDoesNotRetryOn4xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	_, err := client.Run(context.Background(), "goal")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRunSurfacesPortalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "device locked"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	_, err := client.Run(context.Background(), "goal")
	assert.ErrorContains(t, err, "device locked")
}

func TestRunExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1)
	_, err := client.Run(context.Background(), "goal")
	assert.ErrorContains(t, err, "status 502")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestPingUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	err := client.Ping(context.Background())
	assert.Error(t, err)
}

func TestRunHonorsContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"output": "late"})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := newTestClient(t, server.URL, 0)
	_, err := client.Run(ctx, "goal")
	assert.Error(t, err)
}
