// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"

	"github.com/pmahlen/amora/internal/auth"
	"github.com/pmahlen/amora/internal/logging"
)

// ResetQueue clears a user's queue, served-set, and interaction history so
// the next dequeue starts from a fresh pool. Admin only; learned weights
// survive the reset.
func (h *Handler) ResetQueue(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	if err := h.engine.ResetUserQueue(r.Context(), userID); err != nil {
		respondEngineError(rw, err, false)
		return
	}

	admin := "unknown"
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		admin = claims.Username
	}
	logging.Info().
		Str("user_id", sanitizeLogValue(userID)).
		Str("admin", sanitizeLogValue(admin)).
		Msg("Queue reset by admin")

	rw.Success(map[string]interface{}{
		"user_id": userID,
		"reset":   true,
	})
}

// PerformanceStats returns per-route latency percentiles from the sliding
// request window. Admin only.
func (h *Handler) PerformanceStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success(map[string]interface{}{
		"routes": h.perfMon.Stats(),
	})
}
