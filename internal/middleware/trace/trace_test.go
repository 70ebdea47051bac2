package trace

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/log"
)

func TestMiddleware_RecordsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Format: "json", Component: log.ComponentHTTP, Output: &buf})
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	mw := NewMiddleware(func(*http.Request) string { return "198.51.100.4" }, metrics, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.Handler)
	r.Get("/api/members/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/members/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("GET", "/api/members/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("GET", "/healthz", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "start lines are debug only")

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "WARN", first["level"])
	assert.Equal(t, "198.51.100.4", first[log.FieldClientIP])
	assert.EqualValues(t, 404, first[log.FieldStatusCode])
	assert.NotEmpty(t, first[log.FieldRequestID])
	assert.Equal(t, log.ComponentTrace, first[log.FieldComponent])
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	mw := NewMiddleware(nil, metrics, log.Discard())

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/anything/123", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("GET", "unmatched", "200")))
}
