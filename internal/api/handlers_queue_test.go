// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/pmahlen/amora/internal/profile"
)

// seekerSignature sits opposite farSignature on the circumplex, so nearby
// codes score visibly higher than distant ones.
const (
	seekerSignature = "HHC-180-50-50-50-50-50"
	nearSignature   = "HHC-175-52-48-50-51-49"
	farSignature    = "HHC-0-100-0-100-0-100"
)

// TestDequeueServesBestCandidateFirst tests score-ordered serving
func TestDequeueServesBestCandidateFirst(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.candidates.setPool([]profile.Profile{
		poolProfile(t, "far", farSignature),
		poolProfile(t, "near", nearSignature),
	})
	onboard(t, env.router, "seeker", seekerSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/recommendations/seeker/dequeue", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	recommendation, ok := data["recommendation"].(map[string]interface{})
	if !ok {
		t.Fatalf("recommendation is %T, want object", data["recommendation"])
	}
	if recommendation["candidate_id"] != "near" {
		t.Errorf("First served = %v, want near (highest score first)", recommendation["candidate_id"])
	}
	if data["has_more"] != true {
		t.Error("Expected has_more=true with one candidate left")
	}
	if data["remaining_count"] != float64(1) {
		t.Errorf("remaining_count = %v, want 1", data["remaining_count"])
	}
}

// TestDequeueNeverRepeats tests the served-set de-duplication
func TestDequeueNeverRepeats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.candidates.setPool([]profile.Profile{
		poolProfile(t, "only", nearSignature),
	})
	onboard(t, env.router, "seeker", seekerSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/recommendations/seeker/dequeue", nil)
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["recommendation"] == nil {
		t.Fatal("Expected a recommendation on first dequeue")
	}

	// Pool unchanged, so repopulation finds only the already-served user.
	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/match/recommendations/seeker/dequeue", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (exhausted queue is not an error)", rec.Code)
	}

	data = dataMap(t, decodeEnvelope(t, rec))
	if data["recommendation"] != nil {
		t.Errorf("Served candidate came back: %v", data["recommendation"])
	}
	if data["has_more"] != false {
		t.Error("Expected has_more=false on exhausted queue")
	}
	if msg, _ := data["message"].(string); msg == "" {
		t.Error("Expected a neutral message on exhausted queue")
	}
}

// TestDequeueDegradedSource tests that a failing candidate source degrades
// the result instead of failing the request
func TestDequeueDegradedSource(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.candidates.setError(errors.New("upstream pool unavailable"))
	onboard(t, env.router, "seeker", seekerSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/recommendations/seeker/dequeue", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (degraded, not failed)", rec.Code)
	}

	resp := decodeEnvelope(t, rec)
	if !resp.Success {
		t.Error("Expected success=true on degraded dequeue")
	}
	data := dataMap(t, resp)
	if data["degraded"] != true {
		t.Error("Expected degraded=true when the pool fetch failed")
	}
}

// TestDequeueUnknownUser tests the 404 for a user without a profile
func TestDequeueUnknownUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/recommendations/ghost/dequeue", nil)
	requireErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

// TestLikePending tests an unreciprocated like
func TestLikePending(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "ivan", testSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/interactions/ivan/like", InteractionRequest{
		CandidateID: "judy",
		Context:     "queue",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	if data["is_match"] != false {
		t.Error("Expected is_match=false without reciprocation")
	}
	if data["is_pending"] != true {
		t.Error("Expected is_pending=true")
	}
}

// TestLikeMutualMatch tests the oracle-confirmed match path
func TestLikeMutualMatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.oracle.setMutual("kate", "leo")
	onboard(t, env.router, "kate", testSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/interactions/kate/like", InteractionRequest{
		CandidateID: "leo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	if data["is_match"] != true {
		t.Error("Expected is_match=true for a mutual like")
	}
	if data["is_pending"] != false {
		t.Error("Expected is_pending=false once matched")
	}
}

// TestLikeOracleOutage tests the degraded non-match assumption
func TestLikeOracleOutage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.oracle.setError(errors.New("oracle down"))
	onboard(t, env.router, "mia", testSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/interactions/mia/like", InteractionRequest{
		CandidateID: "noah",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (oracle outage must not fail the like)", rec.Code)
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	if data["is_match"] != false {
		t.Error("Expected is_match=false when the oracle is unavailable")
	}
	if data["degraded"] != true {
		t.Error("Expected degraded=true when the oracle is unavailable")
	}
}

// TestLikeSelfRejected tests the self-like guard
func TestLikeSelfRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "olga", testSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/interactions/olga/like", InteractionRequest{
		CandidateID: "olga",
	})
	requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeBadRequest)
}

// TestPassThenLikeChangesMind tests decision reversal tracking
func TestPassThenLikeChangesMind(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "pam", testSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/interactions/pam/pass", InteractionRequest{
		CandidateID: "quinn",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Pass status = %d, want 200", rec.Code)
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["changed_mind"] != false {
		t.Error("First pass must not count as a change of mind")
	}

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/match/interactions/pam/like", InteractionRequest{
		CandidateID: "quinn",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Like status = %d, want 200", rec.Code)
	}
	data = dataMap(t, decodeEnvelope(t, rec))
	if data["changed_mind"] != true {
		t.Error("Like after pass must be flagged as a change of mind")
	}
}

// TestGetInteraction tests interaction state retrieval
func TestGetInteraction(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "rita", testSignature)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/match/interactions/rita/sam", nil)
	requireErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/match/interactions/rita/like", InteractionRequest{
		CandidateID: "sam",
		Context:     "profile_view",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Like status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, env.router, http.MethodGet, "/api/v1/match/interactions/rita/sam", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	if data["action"] != "like" {
		t.Errorf("action = %v, want like", data["action"])
	}
	if data["context"] != "profile_view" {
		t.Errorf("context = %v, want profile_view", data["context"])
	}
	if data["match_pending"] != true {
		t.Error("Expected match_pending=true after an unreciprocated like")
	}
}

// TestQueueStatus tests the read-only queue snapshot
func TestQueueStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.candidates.setPool([]profile.Profile{
		poolProfile(t, "c1", nearSignature),
		poolProfile(t, "c2", farSignature),
	})
	onboard(t, env.router, "seeker", seekerSignature)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/match/recommendations/seeker/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["queue_size"] != float64(0) {
		t.Errorf("queue_size = %v, want 0 before any dequeue", data["queue_size"])
	}
	if data["has_recommendations"] != false {
		t.Error("Expected has_recommendations=false before population")
	}

	doRequest(t, env.router, http.MethodPost, "/api/v1/match/recommendations/seeker/dequeue", nil)

	rec = doRequest(t, env.router, http.MethodGet, "/api/v1/match/recommendations/seeker/status", nil)
	data = dataMap(t, decodeEnvelope(t, rec))
	if data["total_served"] != float64(1) {
		t.Errorf("total_served = %v, want 1 after one dequeue", data["total_served"])
	}
	if data["queue_size"] != float64(1) {
		t.Errorf("queue_size = %v, want 1 left in queue", data["queue_size"])
	}
}

// TestInteractionRequestValidation tests the body validation on decisions
func TestInteractionRequestValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	onboard(t, env.router, "tess", testSignature)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/match/interactions/tess/like", InteractionRequest{})
	requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)
}
