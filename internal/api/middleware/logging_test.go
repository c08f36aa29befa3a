package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdash/weatherdash/internal/api/middleware"
)

// logLine serves one request through RequestID and Logger and returns the
// single access log entry.
func logLine(t *testing.T, method, path string, register func(chi.Router)) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger(zerolog.New(&buf)))
	register(r)

	req := httptest.NewRequest(method, path, http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "renderer-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestLogger_LogsCompletedRequest(t *testing.T) {
	entry := logLine(t, http.MethodGet, "/v1/dashboard", func(r chi.Router) {
		r.Get("/v1/dashboard", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"tab":"overview"}`))
		})
	})

	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/v1/dashboard", entry["path"])
	assert.Equal(t, "/v1/dashboard", entry["route"])
	assert.Equal(t, "renderer-1", entry["request_id"])
	assert.InDelta(t, 200, entry["status"], 0)
	assert.InDelta(t, len(`{"tab":"overview"}`), entry["bytes"], 0)
	assert.NotNil(t, entry["duration"])
}

func TestLogger_LevelByStatusAndPath(t *testing.T) {
	tests := []struct {
		name   string
		method string
		route  string
		path   string
		status int
		level  string
	}{
		{"upstream failure", http.MethodPost, "/v1/search", "/v1/search", http.StatusBadGateway, "error"},
		{"unknown chart tab", http.MethodGet, "/v1/view/charts/{tab}", "/v1/view/charts/radar", http.StatusBadRequest, "warn"},
		{"superseded search", http.MethodPost, "/v1/search", "/v1/search", http.StatusConflict, "warn"},
		{"health check", http.MethodGet, "/v1/ops/health", "/v1/ops/health", http.StatusOK, "debug"},
		{"readiness", http.MethodGet, "/v1/ops/ready", "/v1/ops/ready", http.StatusOK, "debug"},
		{"event stream", http.MethodGet, "/v1/dashboard/events", "/v1/dashboard/events", http.StatusOK, "debug"},
		{"unready host", http.MethodGet, "/v1/ops/ready", "/v1/ops/ready", http.StatusServiceUnavailable, "error"},
		{"tab switch", http.MethodPut, "/v1/view/tab", "/v1/view/tab", http.StatusNoContent, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := logLine(t, tt.method, tt.path, func(r chi.Router) {
				r.Method(tt.method, tt.route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))
			})

			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.route, entry["route"])
			assert.InDelta(t, tt.status, entry["status"], 0)
		})
	}
}

func TestLogger_ImplicitOK(t *testing.T) {
	entry := logLine(t, http.MethodGet, "/v1/history", func(r chi.Router) {
		r.Get("/v1/history", func(w http.ResponseWriter, r *http.Request) {})
	})

	assert.InDelta(t, 200, entry["status"], 0)
	assert.InDelta(t, 0, entry["bytes"], 0)
}

func TestLogger_ContextLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger(zerolog.New(&buf)))
	r.Post("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Str("query", "Frankfurt").Msg("search started")
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "renderer-9")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var handlerLine map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &handlerLine))
	assert.Equal(t, "search started", handlerLine["message"])
	assert.Equal(t, "renderer-9", handlerLine["request_id"])
}

func TestLogger_IncludesTraceID(t *testing.T) {
	recordSpans(t)

	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(middleware.Tracing, middleware.Logger(zerolog.New(&buf)))
	r.Get("/v1/dashboard", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", http.NoBody)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
}
