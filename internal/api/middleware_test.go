// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pmahlen/amora/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestRateLimitEnforced tests that the limiter answers 429 in the envelope
// once the per-IP budget is spent
func TestRateLimitEnforced(t *testing.T) {
	t.Parallel()

	cfg := config.SecurityConfig{
		RateLimitReqs:   2,
		RateLimitWindow: time.Minute,
	}
	handler := NewChiMiddleware(cfg).RateLimit()(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/match/stats", nil)
		req.RemoteAddr = "203.0.113.7:4242"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	resp := requireErrorCode(t, last, http.StatusTooManyRequests, ErrCodeTooManyRequests)
	if resp.Error.Message == "" {
		t.Error("Expected a rate limit message")
	}
}

// TestRateLimitDisabled tests that the disabled flag bypasses limiting
func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	cfg := config.SecurityConfig{
		RateLimitReqs:     1,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: true,
	}
	handler := NewChiMiddleware(cfg).RateLimit()(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/match/stats", nil)
		req.RemoteAddr = "203.0.113.7:4242"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

// TestRateLimitPerIP tests that distinct client IPs get separate budgets
func TestRateLimitPerIP(t *testing.T) {
	t.Parallel()

	cfg := config.SecurityConfig{
		RateLimitReqs:   1,
		RateLimitWindow: time.Minute,
	}
	handler := NewChiMiddleware(cfg).RateLimit()(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "198.51.100.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("First IP: status = %d, want 200", rec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.RemoteAddr = "198.51.100.2:1000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Fatalf("Second IP: status = %d, want 200 (budgets must be per IP)", rec.Code)
	}
}

// TestSecurityHeaders tests the hardening header set
func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	handler := SecurityHeaders()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/match/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set on plain HTTP")
	}
}

// TestSecurityHeadersHSTSBehindProxy tests HSTS with TLS-terminating proxy
func TestSecurityHeadersHSTSBehindProxy(t *testing.T) {
	t.Parallel()

	handler := SecurityHeaders()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/match/stats", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("Expected HSTS behind a TLS-terminating proxy")
	}
}

// TestCORSPreflight tests the preflight response through the full router
func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/match/stats", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if allow := rec.Header().Get("Access-Control-Allow-Origin"); allow != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", allow)
	}
}
