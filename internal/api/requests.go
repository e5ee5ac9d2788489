// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"github.com/pmahlen/amora/internal/profile"
	"github.com/pmahlen/amora/internal/validation"
)

// CreateProfileRequest is the onboarding payload. The factual and preference
// blocks carry their own validation tags on the profile types; validation
// dives into them.
type CreateProfileRequest struct {
	UserID               string                     `json:"user_id" validate:"required,min=1,max=64"`
	SignatureCode        string                     `json:"signature_code" validate:"required,min=2,max=128"`
	Factual              profile.FactualProfile     `json:"factual"`
	Preferences          profile.PartnerPreferences `json:"preferences"`
	CustomAttributeLabel string                     `json:"custom_attribute_label,omitempty" validate:"omitempty,max=64"`
}

// InteractionRequest is the body of a like or pass decision.
type InteractionRequest struct {
	CandidateID string `json:"candidate_id" validate:"required,min=1,max=64"`
	Context     string `json:"context,omitempty" validate:"omitempty,max=64"`
}

// SignalRequest records one reaction to a preference probe.
type SignalRequest struct {
	CandidateID string `json:"candidate_id" validate:"required,min=1,max=64"`
	Attribute   string `json:"attribute" validate:"required,attribute"`
	Reaction    string `json:"reaction" validate:"required,reaction"`
}

// TriggerRequest asks whether the conversation should surface a
// recommendation now.
type TriggerRequest struct {
	Message string   `json:"message" validate:"max=2000"`
	History []string `json:"history,omitempty" validate:"omitempty,max=50,dive,max=2000"`
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// validateRequest runs struct validation and writes the 400 envelope on
// failure. Returns false when the request was rejected.
func validateRequest(rw *ResponseWriter, req interface{}) bool {
	verr := validation.ValidateStruct(req)
	if verr == nil {
		return true
	}

	apiErr := verr.ToAPIError()
	rw.ValidationError(apiErr.Message, apiErr.Details)
	return false
}
