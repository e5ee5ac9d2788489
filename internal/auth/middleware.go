// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pmahlen/amora/internal/logging"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the validated claims set by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// Middleware gates handlers behind admin token validation.
type Middleware struct {
	jwt      *JWTManager
	authMode string
}

// NewMiddleware creates the auth middleware. With authMode "none" the
// middleware passes every request through.
func NewMiddleware(jwt *JWTManager, authMode string) *Middleware {
	return &Middleware{
		jwt:      jwt,
		authMode: authMode,
	}
}

// RequireAdmin enforces a valid token with the admin role. The token comes
// from the Authorization header or, for browser clients, the token cookie.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == "none" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Warn().Err(err).Str("path", r.URL.Path).Msg("admin token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		if claims.Role != RoleAdmin {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil {
			return "", fmt.Errorf("unauthorized: missing token")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("unauthorized: invalid authorization header")
	}

	return parts[1], nil
}
