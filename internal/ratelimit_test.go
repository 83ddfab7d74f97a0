package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := &rateLimiter{
		buckets: make(map[string]*bucket),
		rps:     1,
		burst:   1,
	}

	if !limiter.allow("client") {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.allow("client") {
		t.Fatalf("expected second request to be rate limited")
	}

	time.Sleep(1100 * time.Millisecond)

	if !limiter.allow("client") {
		t.Fatalf("expected request after refill to be allowed")
	}
}

// TestRateLimitHandlerRejects tests that requests over the limit get a 429.
func TestRateLimitHandlerRejects(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewRateLimitHandler(next, 1, 1, time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/jira", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %d", rec.Code)
	}
}

// TestClientIPHeaders tests the client IP extraction precedence.
func TestClientIPHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if ip := clientIP(req); ip != "10.0.0.1" {
		t.Fatalf("expected remote addr host, got %q", ip)
	}

	req.Header.Set("X-Real-Ip", "10.0.0.2")
	if ip := clientIP(req); ip != "10.0.0.2" {
		t.Fatalf("expected X-Real-Ip, got %q", ip)
	}

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	if ip := clientIP(req); ip != "10.0.0.3" {
		t.Fatalf("expected first X-Forwarded-For entry, got %q", ip)
	}
}
