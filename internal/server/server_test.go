// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droid-orchestrator/internal/common/config"
	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/device"
	"droid-orchestrator/internal/session"
	"droid-orchestrator/internal/workflow"
	"droid-orchestrator/pkg/registry"
)

// stubAgent replays canned output per platform keyed by goal substring.
type stubAgent struct {
	outputs map[string]string
}

func (s *stubAgent) Run(ctx context.Context, goal string) (string, error) {
	for sub, out := range s.outputs {
		if strings.Contains(goal, sub) {
			return out, nil
		}
	}
	return "[]", nil
}

func newTestServer(t *testing.T, agent device.Agent) (*Server, *httptest.Server) {
	t.Helper()
	log := logger.NewTestLogger(t)
	runner := session.NewRunner(agent, device.NewGate(), nil, log)
	orch := workflow.NewOrchestrator(
		runner,
		registry.Default(),
		workflow.StaticPreferenceSource{},
		config.WorkflowConfig{},
		log,
	)
	hub := NewHub(log)
	s := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, "droid-orchestrator", hub, orch, log)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func postTask(t *testing.T, srv *httptest.Server, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/task", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLiveness(t *testing.T) {
	_, srv := newTestServer(t, &stubAgent{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := newTestServer(t, &stubAgent{})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTaskRejectsInvalidPayload(t *testing.T) {
	_, srv := newTestServer(t, &stubAgent{})

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"unknown persona", map[string]any{"persona": "wizard"}},
		{"shopper without product", map[string]any{"persona": "shopper"}},
		{"rider without drop", map[string]any{"persona": "rider", "pickup": "HSR"}},
		{"coordinator without guests", map[string]any{"persona": "coordinator", "event_name": "Party"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postTask(t, srv, tt.payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestTaskAcceptedAndStreamed(t *testing.T) {
	agent := &stubAgent{outputs: map[string]string{
		"Open Amazon.":   `[{"title": "Laptop", "price": "50,000", "rating": "4.5"}]`,
		"Open Flipkart.": `[{"title": "Laptop", "price": "48,000", "rating": "4.2"}]`,
	}}
	s, srv := newTestServer(t, agent)

	// Subscribe before submitting so no broadcast is missed.
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.True(t, s.WaitForSubscribers(1, 2*time.Second))

	resp := postTask(t, srv, map[string]any{"persona": "shopper", "product": "laptop"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ack map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "accepted", ack["status"])
	assert.Equal(t, "Task queued", ack["message"])

	// Expect one start line, progress lines, then exactly one terminal line.
	var lines []string
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		line := string(data)
		lines = append(lines, line)
		if strings.HasPrefix(line, "✅") || strings.HasPrefix(line, "🔥") {
			break
		}
	}

	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "🚀"), "first line should announce the task: %q", lines[0])
	assert.Contains(t, lines[0], "shopper")

	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "✅"), "terminal line should be a success: %q", last)
	assert.Contains(t, last, `"winner_platform":"Flipkart"`)
	assert.Contains(t, last, "Flipkart is cheaper.")
}

func TestTaskFailedSessionsStillTerminate(t *testing.T) {
	// Undecodable output on both platforms: the comparison completes with an
	// empty winner, and the stream still gets its terminal line.
	agent := &stubAgent{outputs: map[string]string{
		"Open": "no luck today",
	}}
	s, srv := newTestServer(t, agent)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.True(t, s.WaitForSubscribers(1, 2*time.Second))

	postTask(t, srv, map[string]any{"persona": "patient", "medicine": "Dolo 650"})

	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		line := string(data)
		if strings.HasPrefix(line, "✅") {
			assert.Contains(t, line, "Could not find the item on either platform.")
			return
		}
		require.False(t, strings.HasPrefix(line, "🔥"), "session failures must not fail the task: %q", line)
	}
}

func TestTaskWithoutSubscribersStillRuns(t *testing.T) {
	agent := &stubAgent{}
	_, srv := newTestServer(t, agent)

	resp := postTask(t, srv, map[string]any{"persona": "shopper", "product": "laptop"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// No subscriber to observe it; just give the background task a moment so
	// nothing panics before the server shuts down.
	time.Sleep(100 * time.Millisecond)
}
