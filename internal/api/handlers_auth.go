// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"
	"time"

	"github.com/pmahlen/amora/internal/auth"
	"github.com/pmahlen/amora/internal/logging"
)

// LoginResponse is the successful login payload.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// Login authenticates the bootstrap admin and issues a JWT, both in the
// response body and as an HTTP-only cookie for browser clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if !h.decodeBody(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	if h.config == nil || h.config.Security.AuthMode != "jwt" {
		rw.Forbidden("Authentication is disabled")
		return
	}
	if h.jwt == nil || h.creds == nil {
		rw.ServiceUnavailable("Authentication is not configured")
		return
	}

	if !h.creds.Verify(req.Username, req.Password) {
		logging.Warn().
			Str("username", sanitizeLogValue(req.Username)).
			Msg("Failed admin login attempt")
		rw.Unauthorized("Invalid username or password")
		return
	}

	token, err := h.jwt.GenerateToken(req.Username, auth.RoleAdmin)
	if err != nil {
		logging.Error().Err(err).Msg("Token generation failed")
		rw.InternalError("Failed to generate authentication token")
		return
	}

	expiresAt := time.Now().Add(h.jwt.Timeout())

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	rw.Success(LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  req.Username,
		Role:      auth.RoleAdmin,
	})
}
