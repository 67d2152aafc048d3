package handlers

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"speechcheck/internal/security"
)

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if !strings.Contains(buf.String(), "GET /api/stats -> 418") {
		t.Fatalf("unexpected log %q", buf.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/users", nil))

	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("expected preflight to be answered, got %d called=%v", rec.Code, called)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing allow-origin header")
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	limiter := security.NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	m := NewMiddleware(nil, limiter)
	handler := m.RateLimit(func(w http.ResponseWriter, r *http.Request) {})

	first := httptest.NewRecorder()
	handler(first, httptest.NewRequest(http.MethodPost, "/api/login", nil))
	second := httptest.NewRecorder()
	handler(second, httptest.NewRequest(http.MethodPost, "/api/login", nil))

	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %d then %d", first.Code, second.Code)
	}
}
