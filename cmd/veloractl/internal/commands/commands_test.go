package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conversationJSON = `{"id":"c1","messages":[{"id":"w","text":"Hi! I'm the Velora assistant.","is_from_user":false}],"created_at":"2024-01-01T00:00:00Z"}`

func newAssistantServer(t *testing.T, deleted *atomic.Bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/conversations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(conversationJSON))
	})
	mux.HandleFunc("POST /api/v1/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":{"text":"Opening the pricing calculator","source":"calculator",
			"commands":[{"type":"scroll_to","target":"calculator","delay_ms":500}]},"messages":[]}`))
	})
	mux.HandleFunc("POST /api/v1/conversations/c1/reset", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"conversation_id":"c1","messages":[{"id":"w2","text":"Welcome back","is_from_user":false}]}`))
	})
	mux.HandleFunc("DELETE /api/v1/conversations/c1", func(w http.ResponseWriter, r *http.Request) {
		deleted.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/pricing/estimate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"monthly_cost":3200,"savings":1280,"vehicles_needed":2}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runCmd(t *testing.T, ctx context.Context, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd(&Options{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestChat_SingleMessage(t *testing.T) {
	var deleted atomic.Bool
	srv := newAssistantServer(t, &deleted)

	out, _, err := runCmd(t, context.Background(), "", "chat", "--assistant-url", srv.URL, "show", "me", "the", "calculator")
	require.NoError(t, err)
	assert.Contains(t, out, "assistant> Opening the pricing calculator")
	assert.Contains(t, out, "[scroll_to calculator after 500ms]")
	assert.NotContains(t, out, "Velora assistant.")
	assert.True(t, deleted.Load())
}

func TestChat_Interactive(t *testing.T) {
	var deleted atomic.Bool
	srv := newAssistantServer(t, &deleted)

	out, _, err := runCmd(t, context.Background(), "calculator\n\nreset\nexit\n", "chat", "--assistant-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "assistant> Hi! I'm the Velora assistant.")
	assert.Contains(t, out, "assistant> Opening the pricing calculator")
	assert.Contains(t, out, "assistant> Welcome back")
	assert.True(t, deleted.Load())
}

func TestEstimate_Output(t *testing.T) {
	var deleted atomic.Bool
	srv := newAssistantServer(t, &deleted)

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{name: "json", output: "json", want: `"monthly_cost": 3200`},
		{name: "yaml", output: "yaml", want: "monthly_cost: 3200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCmd(t, context.Background(), "",
				"estimate", "--assistant-url", srv.URL, "-o", tt.output, "--employees", "10", "--frequency", "monthly")
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRoot_RejectsUnknownOutput(t *testing.T) {
	_, _, err := runCmd(t, context.Background(), "", "analytics", "stats", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestAnalyticsClear_RequiresConfirmation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, _, err := runCmd(t, context.Background(), "", "analytics", "clear", "--analytics-url", srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())

	out, _, err := runCmd(t, context.Background(), "", "analytics", "clear", "--yes", "--analytics-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "analytics data cleared")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyticsExport_YAML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"analytics":[{"id":"e1","type":"page_view"}],"liveVisitors":[],"exportDate":"2024-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	out, _, err := runCmd(t, context.Background(), "", "analytics", "export", "-o", "yaml", "--analytics-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "exportDate:")
	assert.Contains(t, out, "type: page_view")
}

func TestAnalyticsVisit_HeartbeatsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var heartbeats atomic.Int32
	var closed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/analytics/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"session_id":"s1","page":"/pricing"}`))
	})
	mux.HandleFunc("POST /api/v1/analytics/sessions/s1/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		if heartbeats.Add(1) == 2 {
			cancel()
		}
		_, _ = w.Write([]byte(`{"id":"s1","currentPage":"/pricing"}`))
	})
	mux.HandleFunc("DELETE /api/v1/analytics/sessions/s1", func(w http.ResponseWriter, r *http.Request) {
		closed.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, _, err := runCmd(t, ctx, "", "analytics", "visit",
		"--analytics-url", srv.URL, "--page", "https://velora.example/pricing", "--interval", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "session s1 opened on /pricing")
	assert.Contains(t, out, "session s1 closed")
	assert.GreaterOrEqual(t, heartbeats.Load(), int32(2))
	assert.True(t, closed.Load())
}
