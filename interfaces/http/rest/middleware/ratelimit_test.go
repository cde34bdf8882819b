package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type fixedLimiter struct {
	allow   bool
	lastKey string
}

func (l *fixedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.lastKey = key
	return l.allow, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAllows(t *testing.T) {
	limiter := &fixedLimiter{allow: true}
	handler := RateLimit(limiter, zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/pet", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if limiter.lastKey != "ip:10.0.0.9" {
		t.Errorf("key = %q, want ip:10.0.0.9 (port stripped)", limiter.lastKey)
	}
}

func TestRateLimitRejects(t *testing.T) {
	handler := RateLimit(&fixedLimiter{allow: false}, zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/qa", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestRateLimitNilLimiterPassesThrough(t *testing.T) {
	handler := RateLimit(nil, zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/qa", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
