// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/pmahlen/amora/internal/auth"
	"github.com/pmahlen/amora/internal/config"
	"github.com/pmahlen/amora/internal/logging"
	"github.com/pmahlen/amora/internal/match"
	"github.com/pmahlen/amora/internal/middleware"
	"github.com/pmahlen/amora/internal/ws"
)

// perfWindowSize is how many recent requests the latency monitor retains.
const perfWindowSize = 1000

// Handler holds the dependencies API handlers need.
//
// Handler methods are split across files:
//   - handlers.go: struct, constructor, health and stats endpoints
//   - handlers_profiles.go: profile onboarding and reads
//   - handlers_queue.go: recommendation dequeue, like, pass, queue status
//   - handlers_signals.go: preference signals, next question, trigger checks
//   - handlers_auth.go: admin login
//   - handlers_ws.go: WebSocket upgrade
//   - handlers_admin.go: admin queue reset and performance stats
type Handler struct {
	engine    *match.Engine
	hub       *ws.Hub
	config    *config.Config
	jwt       *auth.JWTManager
	creds     *auth.AdminCredentials
	perfMon   *middleware.PerformanceMonitor
	version   string
	startTime time.Time
}

// NewHandler creates the API handler. engine is required; hub, jwt, and
// creds may be nil when the corresponding surface is disabled, and the
// affected endpoints then answer 503.
func NewHandler(cfg *config.Config, engine *match.Engine, hub *ws.Hub, jwtManager *auth.JWTManager, creds *auth.AdminCredentials, version string) *Handler {
	return &Handler{
		engine:    engine,
		hub:       hub,
		config:    cfg,
		jwt:       jwtManager,
		creds:     creds,
		perfMon:   middleware.NewPerformanceMonitor(perfWindowSize),
		version:   version,
		startTime: time.Now(),
	}
}

// PerformanceMonitor exposes the latency monitor for router wiring.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// HealthLive answers liveness probes. 200 whenever the process runs,
// regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers readiness probes. Ready once the engine is wired; a
// degraded candidate source is still ready, the engine serves fallbacks.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ready := h.engine != nil
	if !ready {
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Match engine not initialized")
		return
	}

	rw.Success(map[string]interface{}{
		"ready":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// Health reports overall service health with engine and hub snapshots.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := "healthy"
	if h.engine == nil {
		status = "degraded"
	}

	body := map[string]interface{}{
		"status":  status,
		"version": h.version,
		"uptime":  time.Since(h.startTime).Seconds(),
	}
	if h.engine != nil {
		body["engine"] = h.engine.Stats()
	}
	if h.hub != nil {
		body["websocket_clients"] = h.hub.ClientCount()
	}

	rw.Success(body)
}

// Stats returns the engine activity counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.engine == nil {
		rw.ServiceUnavailable("Match engine not initialized")
		return
	}

	rw.Success(h.engine.Stats())
}

// decodeBody decodes a JSON request body into dst, enforcing the configured
// size cap. Returns false after writing the 400 response.
func (h *Handler) decodeBody(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	maxBytes := h.config.API.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest("Invalid request body")
		return false
	}
	return true
}

// respondEngineError maps engine errors onto envelope responses. Sentinels
// get their proper status; anything else from a write path is a client error
// because the engine validates before mutating, while unknown errors on read
// paths surface as 500.
func respondEngineError(rw *ResponseWriter, err error, writePath bool) {
	switch {
	case errors.Is(err, match.ErrProfileNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, match.ErrProfileExists):
		rw.Conflict(err.Error())
	case errors.Is(err, match.ErrEngineClosed):
		rw.ServiceUnavailable("Match engine is shutting down")
	case errors.Is(err, match.ErrInsufficientData):
		rw.Error(http.StatusUnprocessableEntity, ErrCodeValidationFailed, err.Error())
	case writePath:
		rw.BadRequest(err.Error())
	default:
		logging.Error().Err(err).Msg("Unhandled engine error")
		rw.InternalError("Internal error")
	}
}

// userIDParam reads and validates the {userID} path parameter. Returns false
// after writing the 400 response.
func userIDParam(rw *ResponseWriter, r *http.Request) (string, bool) {
	return pathParam(rw, r, "userID", "user ID")
}

// pathParam reads one chi URL parameter, rejecting empty or oversized
// values.
func pathParam(rw *ResponseWriter, r *http.Request, name, label string) (string, bool) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		rw.BadRequest(label + " is required")
		return "", false
	}
	if len(v) > 64 {
		rw.BadRequest(label + " is too long")
		return "", false
	}
	return v, true
}

// sanitizeLogValue strips newlines from attacker-controlled strings before
// they reach a log line.
func sanitizeLogValue(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > 128 {
		s = s[:128]
	}
	return s
}
