// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"

	"github.com/pmahlen/amora/internal/profile"
)

// RecordSignal records one labeled reaction and returns the updated weight
// vector. The attribute and reaction strings were validated against the
// closed sets already, so the parses cannot fail.
func (h *Handler) RecordSignal(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	var req SignalRequest
	if !h.decodeBody(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	attr, err := profile.ParseAttribute(req.Attribute)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	reaction, err := profile.ParseReaction(req.Reaction)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	result, err := h.engine.RecordInteractionSignal(r.Context(), userID, req.CandidateID, attr, reaction)
	if err != nil {
		respondEngineError(rw, err, true)
		return
	}

	rw.Success(result)
}

// NextQuestion returns the attribute the conversation should probe next,
// chosen by the exploration policy.
func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	attr, err := h.engine.NextQuestionAttribute(r.Context(), userID)
	if err != nil {
		respondEngineError(rw, err, false)
		return
	}

	rw.Success(map[string]interface{}{
		"attribute": attr,
	})
}

// EvaluateTrigger decides whether the conversation should surface a
// recommendation at this turn.
func (h *Handler) EvaluateTrigger(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := userIDParam(rw, r)
	if !ok {
		return
	}

	var req TriggerRequest
	if !h.decodeBody(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	triggered, err := h.engine.ShouldTriggerRecommendation(r.Context(), userID, req.Message, req.History)
	if err != nil {
		respondEngineError(rw, err, false)
		return
	}

	rw.Success(map[string]interface{}{
		"triggered": triggered,
	})
}
