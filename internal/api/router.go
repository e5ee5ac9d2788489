// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pmahlen/amora/internal/auth"
	"github.com/pmahlen/amora/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	chimw   *ChiMiddleware
	auth    *auth.Middleware
}

// NewRouter creates a router around the handler and middleware factories.
func NewRouter(handler *Handler, chimw *ChiMiddleware, authMW *auth.Middleware) *Router {
	return &Router{
		handler: handler,
		chimw:   chimw,
		auth:    authMW,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler so the middleware package plugs into
// r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chimw.CORS()) // global so OPTIONS preflight works everywhere

	// Unknown routes and wrong methods answer in the envelope too.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so monitoring can poll frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chimw.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Authentication
	// ========================
	// Strict limits against credential stuffing.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chimw.RateLimitAuth())
		r.Use(SecurityHeaders())
		r.With(router.chimw.RateLimitLogin()).Post("/login", router.handler.Login)
	})

	// ========================
	// Matching Surface
	// ========================
	r.Route("/api/v1/match", func(r chi.Router) {
		r.Use(router.chimw.RateLimit())
		r.Use(SecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.perfMon.Middleware)
		r.Use(chiMiddleware(middleware.Compression))

		// Profiles
		r.Post("/profiles", router.handler.CreateProfile)
		r.Get("/profiles/{userID}", router.handler.GetProfile)
		r.Get("/profiles/{userID}/weights", router.handler.GetWeights)

		// Scoring
		r.Get("/compatibility/{seekerID}/{candidateID}", router.handler.ScoreCompatibility)

		// Recommendation queue
		r.Post("/recommendations/{userID}/dequeue", router.handler.DequeueRecommendation)
		r.Get("/recommendations/{userID}/status", router.handler.GetQueueStatus)

		// Swipe decisions
		r.Post("/interactions/{userID}/like", router.handler.Like)
		r.Post("/interactions/{userID}/pass", router.handler.Pass)
		r.Get("/interactions/{userID}/{candidateID}", router.handler.GetInteraction)

		// Preference learning
		r.Post("/signals/{userID}", router.handler.RecordSignal)
		r.Get("/signals/{userID}/next-question", router.handler.NextQuestion)

		// Conversational trigger
		r.Post("/trigger/{userID}", router.handler.EvaluateTrigger)

		// Engine counters
		r.Get("/stats", router.handler.Stats)
	})

	// ========================
	// Realtime
	// ========================
	// The upgrade must not pass through the gzip middleware.
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.chimw.RateLimit())
		r.Get("/", router.handler.WebSocket)
	})

	// ========================
	// Admin Surface
	// ========================
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chimw.RateLimitAuth())
		r.Use(SecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.auth.RequireAdmin)

		r.Post("/queue/{userID}/reset", router.handler.ResetQueue)
		r.Get("/performance", router.handler.PerformanceStats)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
