// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"

	"github.com/pmahlen/amora/internal/logging"
	"github.com/pmahlen/amora/internal/profile"
)

// CreateProfile onboards a new user from a signature code plus factual
// profile and preferences. 201 on success, 409 when the user already has a
// profile, 400 on an unparseable signature or invalid ranges.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateProfileRequest
	if !h.decodeBody(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	created, err := h.engine.CreateProfile(r.Context(), profile.Profile{
		UserID:               req.UserID,
		SignatureCode:        req.SignatureCode,
		Factual:              req.Factual,
		Preferences:          req.Preferences,
		CustomAttributeLabel: req.CustomAttributeLabel,
	})
	if err != nil {
		respondEngineError(rw, err, true)
		return
	}

	logging.Info().
		Str("user_id", sanitizeLogValue(req.UserID)).
		Msg("Profile onboarded via API")

	rw.Created(created)
}

// GetProfile returns the stored profile for a user.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	p, err := h.engine.GetProfile(r.Context(), userID)
	if err != nil {
		respondEngineError(rw, err, false)
		return
	}

	rw.Success(p)
}

// GetWeights returns the user's current learned preference weights.
func (h *Handler) GetWeights(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	weights, err := h.engine.GetWeights(r.Context(), userID)
	if err != nil {
		respondEngineError(rw, err, false)
		return
	}

	rw.Success(weights)
}

// ScoreCompatibility scores a (seeker, candidate) pair with the seeker's
// learned weights.
func (h *Handler) ScoreCompatibility(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	seekerID, ok := pathParam(rw, r, "seekerID", "seeker ID")
	if !ok {
		return
	}
	candidateID, ok := pathParam(rw, r, "candidateID", "candidate ID")
	if !ok {
		return
	}
	if seekerID == candidateID {
		rw.BadRequest("seeker and candidate must differ")
		return
	}

	score, err := h.engine.ScoreCompatibility(r.Context(), seekerID, candidateID)
	if err != nil {
		respondEngineError(rw, err, false)
		return
	}

	rw.Success(score)
}
