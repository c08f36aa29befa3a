package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weatherdash/weatherdash/internal/api/middleware"
)

func serveTabSwitch(t *testing.T, requestID string) (seen string, echoed string) {
	t.Helper()

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPut, "/v1/view/tab", strings.NewReader(`{"tab":"precipitation"}`))
	if requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return seen, rec.Header().Get(middleware.RequestIDHeader)
}

func TestRequestID_GeneratedWhenMissing(t *testing.T) {
	seen, echoed := serveTabSwitch(t, "")

	assert.True(t, strings.HasPrefix(seen, "wd-"), "got %q", seen)
	assert.Equal(t, seen, echoed)
}

func TestRequestID_KeepsRendererID(t *testing.T) {
	seen, echoed := serveTabSwitch(t, "renderer-42.tab_click")

	assert.Equal(t, "renderer-42.tab_click", seen)
	assert.Equal(t, "renderer-42.tab_click", echoed)
}

func TestRequestID_ReplacesUnusableID(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"too long", strings.Repeat("a", 65)},
		{"whitespace", "tab click"},
		{"header injection", "abc\r\nSet-Cookie: x=1"},
		{"quotes", `"abc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, echoed := serveTabSwitch(t, tt.id)

			assert.NotEqual(t, tt.id, seen)
			assert.True(t, strings.HasPrefix(seen, "wd-"), "got %q", seen)
			assert.Equal(t, seen, echoed)
		})
	}
}

func TestRequestID_AcceptsMaxLength(t *testing.T) {
	id := strings.Repeat("b", 64)
	seen, _ := serveTabSwitch(t, id)
	assert.Equal(t, id, seen)
}

func TestNewRequestID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := middleware.NewRequestID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", http.NoBody)
	assert.Empty(t, middleware.GetRequestID(req.Context()))

	ctx := middleware.WithRequestID(req.Context(), "wd-fixed")
	assert.Equal(t, "wd-fixed", middleware.GetRequestID(ctx))
}
