// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/pmahlen/amora/internal/config"
	"github.com/pmahlen/amora/internal/metrics"
)

// RateLimitConfig defines rate limit parameters for one endpoint group.
type RateLimitConfig struct {
	// Requests is the number of requests allowed in the window.
	Requests int

	// Window is the time window for rate limiting.
	Window time.Duration
}

// Endpoint-group rate limits. The default API limit comes from config; these
// cover groups with different traffic shapes.
var (
	// rateLimitAuth throttles the auth group against brute force.
	rateLimitAuth = RateLimitConfig{Requests: 5, Window: time.Minute}

	// rateLimitLogin is stricter still for login attempts.
	rateLimitLogin = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}

	// rateLimitHealth stays permissive so monitoring can poll freely.
	rateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// ChiMiddleware builds the chi middleware stack from security config:
// CORS and the per-group rate limiters.
type ChiMiddleware struct {
	cfg  config.SecurityConfig
	cors func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory.
func NewChiMiddleware(cfg config.SecurityConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &ChiMiddleware{
		cfg:  cfg,
		cors: corsHandler,
	}
}

// CORS returns the CORS middleware built from the configured origins.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP limiter for the data surface, sized
// from config.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.rateLimitCustom(RateLimitConfig{
		Requests: m.cfg.RateLimitReqs,
		Window:   m.cfg.RateLimitWindow,
	})
}

// RateLimitAuth returns the strict limiter for the auth group.
func (m *ChiMiddleware) RateLimitAuth() func(http.Handler) http.Handler {
	return m.rateLimitCustom(rateLimitAuth)
}

// RateLimitLogin returns the strictest limiter, for login attempts.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.rateLimitCustom(rateLimitLogin)
}

// RateLimitHealth returns the permissive limiter for health probes.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.rateLimitCustom(rateLimitHealth)
}

func (m *ChiMiddleware) rateLimitCustom(rl RateLimitConfig) func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		rl.Requests,
		rl.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

// rateLimitExceeded writes the envelope 429 and counts the hit.
func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	metrics.APIRateLimitHits.Inc()
	NewResponseWriter(w, r).TooManyRequests("Rate limit exceeded, slow down")
}

// SecurityHeaders adds response headers that harden the JSON API: no MIME
// sniffing, no framing, no caching of match data, trimmed referrers. HSTS is
// added only when the request arrived over TLS or a TLS-terminating proxy.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
