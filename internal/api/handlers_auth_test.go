// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// loginToken logs the bootstrap admin in through the API and returns the
// issued token.
func loginToken(t *testing.T, router http.Handler) string {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "admin",
		Password: "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Login failed: status %d, body %q", rec.Code, rec.Body.String())
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("Login returned an empty token")
	}
	return token
}

// TestLoginSuccess tests the happy path with body and cookie
func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "admin",
		Password: "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	if token, _ := data["token"].(string); token == "" {
		t.Error("Expected a token in the response body")
	}
	if data["username"] != "admin" {
		t.Errorf("username = %v, want admin", data["username"])
	}
	if data["role"] != "admin" {
		t.Errorf("role = %v, want admin", data["role"])
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Expected a token cookie")
	}
	if !cookie.HttpOnly {
		t.Error("Token cookie must be HTTP-only")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Error("Token cookie must be SameSite=Strict")
	}
}

// TestLoginWrongPassword tests credential rejection
func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "admin",
		Password: "wrong-password",
	})
	requireErrorCode(t, rec, http.StatusUnauthorized, ErrCodeUnauthorized)
}

// TestLoginWrongUsername tests that unknown users are indistinguishable from
// wrong passwords
func TestLoginWrongUsername(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "root",
		Password: "password123",
	})
	resp := requireErrorCode(t, rec, http.StatusUnauthorized, ErrCodeUnauthorized)
	if resp.Error.Message != "Invalid username or password" {
		t.Errorf("Error message = %q, must not leak which part failed", resp.Error.Message)
	}
}

// TestLoginValidation tests the empty-field rejection
func TestLoginValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "admin",
	})
	requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)
}

// TestLoginDisabledAuthMode tests the 403 when auth mode is none
func TestLoginDisabledAuthMode(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig()
	cfg.Security.AuthMode = "none"
	engine := newTestEngine(t, &stubCandidates{}, newStubOracle())
	router := newTestRouter(t, cfg, engine, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "admin",
		Password: "password123",
	})
	requireErrorCode(t, rec, http.StatusForbidden, ErrCodeForbidden)
}

// TestLoginUnconfigured tests the 503 when no credentials are wired
func TestLoginUnconfigured(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig()
	handler := NewHandler(cfg, nil, nil, nil, nil, "test")

	rec := httptest.NewRecorder()
	req := doRequestBody(t, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "admin",
		Password: "password123",
	})
	handler.Login(rec, req)

	requireErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}
