package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketExhausts(t *testing.T) {
	tb := NewTokenBucket(2, 0)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(1, 0)
	defer limiter.Stop()
	h := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(path, addr string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("/v1/family", "10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, do("/v1/family", "10.0.0.1:2222"))
	assert.Equal(t, http.StatusNoContent, do("/v1/family", "10.0.0.2:1111"))
	assert.Equal(t, http.StatusNoContent, do("/health", "10.0.0.1:1111"))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{
		"provider": &ProviderHealthChecker{Provider: pinger{}},
	})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{
		"provider": &ProviderHealthChecker{Provider: pinger{err: errors.New("down")}},
	})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "down", body.Checks["provider"].Message)
}

func TestMetricsHandlerIncludesGauges(t *testing.T) {
	IncrementChatMessages()
	rec := httptest.NewRecorder()
	MetricsHandler(map[string]func() int{"sessions_active": func() int { return 7 }})(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.EqualValues(t, 7, body["sessions_active"])
	assert.GreaterOrEqual(t, body["chat_messages"].(float64), float64(1))
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.Equal(t, "/x", entry["path"])
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateSessionID("0b6f5c8e-9a5e-4c1e-8f5e-3c2d1b0a9f8e"))
	assert.Error(t, ValidateSessionID(""))
	assert.Error(t, ValidateSessionID("../etc"))

	assert.NoError(t, ValidateMemberID("2"))
	assert.Error(t, ValidateMemberID("a b"))

	assert.NoError(t, ValidateReportType("image/PNG"))
	assert.NoError(t, ValidateReportType("application/pdf"))
	assert.Error(t, ValidateReportType("text/html"))

	assert.Error(t, ValidateChatMessage(string(make([]rune, MaxChatMessageLen+1))))
	assert.Equal(t, "hi there", SanitizeString(" hi\x00 there\x07 "))
}
