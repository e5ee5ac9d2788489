// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pmahlen/amora/internal/logging"
)

// TestResponseWriterSuccess tests the success envelope shape
func TestResponseWriterSuccess(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	NewResponseWriter(rec, req).Success(map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	resp := decodeEnvelope(t, rec)
	if !resp.Success {
		t.Error("Expected success=true")
	}
	if resp.Error != nil {
		t.Errorf("Expected no error, got %+v", resp.Error)
	}
	if resp.Meta == nil {
		t.Fatal("Expected meta block")
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("Expected meta timestamp to be set")
	}

	data := dataMap(t, resp)
	if data["hello"] != "world" {
		t.Errorf("data = %v, want hello=world", data)
	}
}

// TestResponseWriterCreated tests the 201 envelope
func TestResponseWriterCreated(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	rec := httptest.NewRecorder()

	NewResponseWriter(rec, req).Created(map[string]string{"id": "u1"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want 201", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); !resp.Success {
		t.Error("Expected success=true")
	}
}

// TestResponseWriterErrors tests each error helper's status and code
func TestResponseWriterErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(rw *ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(rw *ResponseWriter) { rw.BadRequest("nope") }, http.StatusBadRequest, ErrCodeBadRequest},
		{"unauthorized", func(rw *ResponseWriter) { rw.Unauthorized("nope") }, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"forbidden", func(rw *ResponseWriter) { rw.Forbidden("nope") }, http.StatusForbidden, ErrCodeForbidden},
		{"not found", func(rw *ResponseWriter) { rw.NotFound("nope") }, http.StatusNotFound, ErrCodeNotFound},
		{"conflict", func(rw *ResponseWriter) { rw.Conflict("nope") }, http.StatusConflict, ErrCodeConflict},
		{"too many requests", func(rw *ResponseWriter) { rw.TooManyRequests("nope") }, http.StatusTooManyRequests, ErrCodeTooManyRequests},
		{"internal", func(rw *ResponseWriter) { rw.InternalError("nope") }, http.StatusInternalServerError, ErrCodeInternalError},
		{"unavailable", func(rw *ResponseWriter) { rw.ServiceUnavailable("nope") }, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			tt.write(NewResponseWriter(rec, req))

			resp := requireErrorCode(t, rec, tt.wantStatus, tt.wantCode)
			if resp.Error.Message != "nope" {
				t.Errorf("Error message = %q, want %q", resp.Error.Message, "nope")
			}
		})
	}
}

// TestResponseWriterValidationError tests the 400 envelope with details
func TestResponseWriterValidationError(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	rec := httptest.NewRecorder()

	NewResponseWriter(rec, req).ValidationError("UserID is required", map[string]interface{}{
		"field": "UserID",
	})

	resp := requireErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)

	details, ok := resp.Error.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("Details is %T, want object", resp.Error.Details)
	}
	if details["field"] != "UserID" {
		t.Errorf("Details field = %v, want UserID", details["field"])
	}
}

// TestResponseCarriesRequestID tests that the request ID from the context
// lands in both meta and the error block
func TestResponseCarriesRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := logging.ContextWithRequestID(req.Context(), "req-abc-123")
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	NewResponseWriter(rec, req).NotFound("gone")

	resp := decodeEnvelope(t, rec)
	if resp.Meta == nil || resp.Meta.RequestID != "req-abc-123" {
		t.Errorf("Meta request ID = %v, want req-abc-123", resp.Meta)
	}
	if resp.Error == nil || resp.Error.RequestID != "req-abc-123" {
		t.Errorf("Error request ID = %v, want req-abc-123", resp.Error)
	}
}

// TestWriteHelpers tests the package-level convenience writers
func TestWriteHelpers(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	WriteSuccess(rec, req, map[string]bool{"ok": true})

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); !resp.Success {
		t.Error("Expected success=true")
	}

	rec = httptest.NewRecorder()
	WriteError(rec, req, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "down")
	requireErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}
