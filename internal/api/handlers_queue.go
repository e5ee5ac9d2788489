// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"

	"github.com/pmahlen/amora/internal/match"
)

// DequeueRecommendation serves the next recommendation for a user,
// repopulating the queue when it runs dry. An exhausted pool is a 200 with
// has_more=false and a neutral message, not an error.
func (h *Handler) DequeueRecommendation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	result, err := h.engine.DequeueRecommendation(r.Context(), userID)
	if err != nil {
		respondEngineError(rw, err, false)
		return
	}

	rw.Success(result)
}

// Like records a like decision. A mutual like comes back with is_match=true;
// an unreciprocated one is pending and invisible to the candidate.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	var req InteractionRequest
	if !h.decodeBody(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}
	if req.CandidateID == userID {
		rw.BadRequest("cannot like yourself")
		return
	}

	result, err := h.engine.Like(r.Context(), userID, req.CandidateID, match.Metadata{Context: req.Context})
	if err != nil {
		respondEngineError(rw, err, true)
		return
	}

	rw.Success(result)
}

// Pass records a pass decision.
func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	var req InteractionRequest
	if !h.decodeBody(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}
	if req.CandidateID == userID {
		rw.BadRequest("cannot pass on yourself")
		return
	}

	result, err := h.engine.Pass(r.Context(), userID, req.CandidateID, match.Metadata{Context: req.Context})
	if err != nil {
		respondEngineError(rw, err, true)
		return
	}

	rw.Success(result)
}

// GetInteraction returns the recorded decision state for one
// (user, candidate) pair. 404 when no decision was ever recorded.
func (h *Handler) GetInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}
	candidateID, ok := pathParam(rw, r, "candidateID", "candidate ID")
	if !ok {
		return
	}

	record, found, err := h.engine.Interaction(r.Context(), userID, candidateID)
	if err != nil {
		respondEngineError(rw, err, false)
		return
	}
	if !found {
		rw.NotFound("no interaction recorded for this pair")
		return
	}

	rw.Success(record)
}

// GetQueueStatus returns a read-only snapshot of the user's queue.
func (h *Handler) GetQueueStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	status, err := h.engine.GetQueueStatus(r.Context(), userID)
	if err != nil {
		respondEngineError(rw, err, false)
		return
	}

	rw.Success(status)
}
