package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/promptlens/promptlens/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })

	return collector
}

func setupLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	original := observability.ServerLogger
	observability.ServerLogger = zap.New(core)
	t.Cleanup(func() { observability.ServerLogger = original })

	return logs
}

// promptRouter mounts the prompt API shapes with stub handlers. Unknown
// prompt identifiers answer 404.
func promptRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestMetrics)

	ok := func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			http.Error(w, "prompt not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"content":"Be kind."}`))
	}
	r.Get("/prompts", ok)
	r.Get("/prompts/{id}", ok)
	r.Post("/prompts/{id}/render", ok)
	r.Put("/pins/{id}", ok)
	r.Delete("/pins/{id}", ok)
	r.Post("/format", ok)
	r.Post("/reload", ok)
	return r
}

func completedEntries(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.FilterMessage("HTTP request completed").All()
}

func TestRequestMetricsPromptRoutes(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		endpoint string
	}{
		{http.MethodGet, "/prompts", "/prompts"},
		{http.MethodGet, "/prompts/ab12cd34", "/prompts/{id}"},
		{http.MethodPost, "/prompts/ab12cd34/render", "/prompts/{id}/render"},
		{http.MethodPut, "/pins/ab12cd34", "/pins/{id}"},
		{http.MethodDelete, "/pins/ef56ab78", "/pins/{id}"},
		{http.MethodPost, "/format", "/format"},
		{http.MethodPost, "/reload", "/reload"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			collector := setupTelemetry(t)
			logs := setupLogs(t)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(RequestIDHeader, "render-7")
			rec := httptest.NewRecorder()
			promptRouter().ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Greater(t, collector.CountMetricsByName("http_requests_total"), 0)
			assert.Greater(t, collector.CountMetricsByName("http_request_duration_ms"), 0)
			assert.Zero(t, collector.CountMetricsByName("http_errors_total"))

			entries := completedEntries(logs)
			require.Len(t, entries, 1)
			fields := entries[0].ContextMap()
			assert.Equal(t, tt.endpoint, fields["endpoint"])
			assert.Equal(t, tt.path, fields["path"])
			assert.Equal(t, "render-7", fields["request_id"])
		})
	}
}

func TestRequestMetricsUnknownPrompt(t *testing.T) {
	collector := setupTelemetry(t)
	logs := setupLogs(t)

	rec := httptest.NewRecorder()
	promptRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/prompts/missing/render", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Greater(t, collector.CountMetricsByName("http_errors_total"), 0)

	entries := completedEntries(logs)
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/prompts/{id}/render", fields["endpoint"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), fields["request_id"])
}

func TestRequestMetricsUnmatchedRoute(t *testing.T) {
	setupTelemetry(t)
	logs := setupLogs(t)

	rec := httptest.NewRecorder()
	promptRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/123", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	entries := completedEntries(logs)
	require.Len(t, entries, 1)
	assert.Equal(t, "/unknown", entries[0].ContextMap()["endpoint"])
}

func TestRequestMetricsSizes(t *testing.T) {
	collector := setupTelemetry(t)
	logs := setupLogs(t)

	body := `{"replacements":{"clipboard":"hello"}}`
	req := httptest.NewRequest(http.MethodPost, "/prompts/ab12cd34/render", strings.NewReader(body))
	req.Header.Set("Content-Length", "38")
	rec := httptest.NewRecorder()
	promptRouter().ServeHTTP(rec, req)

	assert.Greater(t, collector.CountMetricsByName("http_request_size_bytes"), 0)
	assert.Greater(t, collector.CountMetricsByName("http_response_size_bytes"), 0)

	entries := completedEntries(logs)
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 38, fields["request_size"])
	assert.EqualValues(t, rec.Body.Len(), fields["response_size"])
}

func TestRequestMetricsTelemetryDisabled(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })
	logs := setupLogs(t)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		promptRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/ab12cd34", nil))
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, completedEntries(logs))
}

func TestGetEndpointPatternWithoutRouter(t *testing.T) {
	tests := map[string]string{
		"/health/ready":            "/health/*",
		"/prompts/ab12cd34/render": "/prompts/{id}/render",
		"/pins/ab12cd34":           "/pins/{id}",
		"/favicon.ico":             "/unknown",
	}

	for path, want := range tests {
		assert.Equal(t, want, getEndpointPattern(httptest.NewRequest(http.MethodGet, path, nil)), path)
	}
}
