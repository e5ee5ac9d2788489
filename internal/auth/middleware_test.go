// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func adminHandler(t *testing.T, sawClaims *bool) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFromContext(r.Context()); ok && claims.Username != "" {
			*sawClaims = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdmin(t *testing.T) {
	manager, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	mw := NewMiddleware(manager, "jwt")

	adminToken, err := manager.GenerateToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	viewerToken, err := manager.GenerateToken("viewer", "viewer")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name       string
		setRequest func(r *http.Request)
		wantStatus int
		wantClaims bool
	}{
		{
			name:       "missing token",
			setRequest: func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "malformed header",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic abc123")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "invalid token",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer garbage")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "non-admin role",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+viewerToken)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "valid admin token",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+adminToken)
			},
			wantStatus: http.StatusOK,
			wantClaims: true,
		},
		{
			name: "token cookie fallback",
			setRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: adminToken})
			},
			wantStatus: http.StatusOK,
			wantClaims: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sawClaims := false
			handler := mw.RequireAdmin(adminHandler(t, &sawClaims))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil)
			tt.setRequest(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if sawClaims != tt.wantClaims {
				t.Errorf("claims in context = %v, want %v", sawClaims, tt.wantClaims)
			}
		})
	}
}

func TestRequireAdminAuthModeNone(t *testing.T) {
	mw := NewMiddleware(nil, "none")

	sawClaims := false
	handler := mw.RequireAdmin(adminHandler(t, &sawClaims))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rec.Code)
	}
	if sawClaims {
		t.Error("no claims should be set when auth is disabled")
	}
}
