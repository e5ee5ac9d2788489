// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/pmahlen/amora/internal/profile"
)

// TestCreateProfile tests profile onboarding through the router
func TestCreateProfile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	age := 29
	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/profiles", CreateProfileRequest{
		UserID:        "alice",
		SignatureCode: testSignature,
		Factual: profile.FactualProfile{
			Age:              &age,
			Gender:           profile.GenderFemale,
			RelationshipGoal: profile.GoalLongTerm,
			Interests:        []string{"hiking", "jazz"},
		},
		Preferences: profile.PartnerPreferences{
			AgeRange: &profile.Range{Min: 25, Max: 40},
		},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want 201 (body %q)", rec.Code, rec.Body.String())
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	if data["user_id"] != "alice" {
		t.Errorf("user_id = %v, want alice", data["user_id"])
	}
	if data["signature_code"] != testSignature {
		t.Errorf("signature_code = %v, want %v", data["signature_code"], testSignature)
	}
	if data["created_at"] == nil {
		t.Error("Expected created_at to be stamped")
	}
}

// TestCreateProfileDuplicate tests the 409 on re-onboarding
func TestCreateProfileDuplicate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "bob", testSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/profiles", CreateProfileRequest{
		UserID:        "bob",
		SignatureCode: testSignature,
	})

	requireErrorCode(t, rec, http.StatusConflict, ErrCodeConflict)
}

// TestCreateProfileBadSignature tests rejection of unparseable codes
func TestCreateProfileBadSignature(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tests := []struct {
		name string
		code string
	}{
		{"wrong prefix", "XYZ-10-20-30-40-50-60"},
		{"missing segments", "HHC-10-20"},
		{"angle out of range", "HHC-400-20-30-40-50-60"},
		{"trait out of range", "HHC-10-200-30-40-50-60"},
		{"non-numeric segment", "HHC-10-abc-30-40-50-60"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/profiles", CreateProfileRequest{
				UserID:        "sig-" + strings.ReplaceAll(tt.name, " ", "-"),
				SignatureCode: tt.code,
			})

			requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeBadRequest)
		})
	}
}

// TestCreateProfileValidation tests struct validation failures
func TestCreateProfileValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/profiles", CreateProfileRequest{
		SignatureCode: testSignature, // user_id missing
	})

	resp := requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)
	if !strings.Contains(resp.Error.Message, "UserID") {
		t.Errorf("Error message = %q, want mention of UserID", resp.Error.Message)
	}
}

// TestCreateProfileUnderageRejected tests the age floor
func TestCreateProfileUnderageRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	age := 17
	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/profiles", CreateProfileRequest{
		UserID:        "too-young",
		SignatureCode: testSignature,
		Factual:       profile.FactualProfile{Age: &age},
	})

	requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)
}

// TestCreateProfileInvalidAgeRange tests inverted preference ranges
func TestCreateProfileInvalidAgeRange(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/profiles", CreateProfileRequest{
		UserID:        "inverted",
		SignatureCode: testSignature,
		Preferences: profile.PartnerPreferences{
			AgeRange: &profile.Range{Min: 40, Max: 25},
		},
	})

	requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeBadRequest)
}

// TestGetProfile tests profile retrieval
func TestGetProfile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "carol", testSignature)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/match/profiles/carol", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	if data["user_id"] != "carol" {
		t.Errorf("user_id = %v, want carol", data["user_id"])
	}

	sig, ok := data["signature"].(map[string]interface{})
	if !ok {
		t.Fatalf("signature is %T, want object", data["signature"])
	}
	if sig["circumplex_angle"] != float64(273) {
		t.Errorf("circumplex_angle = %v, want 273", sig["circumplex_angle"])
	}
}

// TestGetProfileNotFound tests the 404 for unknown users
func TestGetProfileNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/match/profiles/ghost", nil)
	requireErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

// TestGetWeights tests that a fresh user starts at the default distribution
func TestGetWeights(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "dave", testSignature)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/match/profiles/dave/weights", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	data := dataMap(t, decodeEnvelope(t, rec))

	sum := 0.0
	for _, attr := range profile.Attributes() {
		w, ok := data[string(attr)].(float64)
		if !ok {
			t.Fatalf("Weight for %s is %T, want number", attr, data[string(attr)])
		}
		sum += w
	}
	if math.Abs(sum-1.0) > profile.WeightEpsilon {
		t.Errorf("Weights sum = %v, want 1.0", sum)
	}

	if got := data["age"].(float64); got != profile.DefaultWeights().Age {
		t.Errorf("age weight = %v, want default %v", got, profile.DefaultWeights().Age)
	}
}

// TestScoreCompatibility tests scoring a pair through the router
func TestScoreCompatibility(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "erin", testSignature)
	onboard(t, env.router, "frank", "HHC-270-50-80-70-30-60")

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/match/compatibility/erin/frank", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	total, ok := data["total_score"].(float64)
	if !ok {
		t.Fatalf("total_score is %T, want number", data["total_score"])
	}
	if total < 0 || total > 1 {
		t.Errorf("total_score = %v, want within [0, 1]", total)
	}
	if expl, _ := data["explanation"].(string); expl == "" {
		t.Error("Expected a non-empty explanation")
	}
}

// TestScoreCompatibilitySelf tests the self-pair rejection
func TestScoreCompatibilitySelf(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "grace", testSignature)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/match/compatibility/grace/grace", nil)
	requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeBadRequest)
}

// TestScoreCompatibilityUnknownCandidate tests the 404 propagation
func TestScoreCompatibilityUnknownCandidate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "heidi", testSignature)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/match/compatibility/heidi/ghost", nil)
	requireErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

// TestBodySizeCap tests the request body limit
func TestBodySizeCap(t *testing.T) {
	t.Parallel()

	candidates := &stubCandidates{}
	cfg := newTestConfig()
	cfg.API.MaxBodyBytes = 64
	engine := newTestEngine(t, candidates, newStubOracle())
	router := newTestRouter(t, cfg, engine, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/match/profiles", CreateProfileRequest{
		UserID:        "oversized",
		SignatureCode: testSignature,
		Factual: profile.FactualProfile{
			Interests: []string{strings.Repeat("x", 256)},
		},
	})

	requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeBadRequest)
}
