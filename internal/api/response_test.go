// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedgraph/internal/logging"
)

func TestResponseWriter_Success(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "rid-1"))

	NewResponseWriter(w, r).Success(map[string]string{"message": "hello"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !response.Success || response.Error != nil {
		t.Errorf("unexpected envelope %+v", response)
	}
	if response.Meta == nil || response.Meta.Timestamp.IsZero() || response.Meta.RequestID != "rid-1" {
		t.Errorf("meta = %+v", response.Meta)
	}
}

func TestResponseWriter_StatusHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		write   func(rw *ResponseWriter)
		status  int
		code    string
		success bool
	}{
		{"created", func(rw *ResponseWriter) { rw.Created("x") }, http.StatusCreated, "", true},
		{"accepted", func(rw *ResponseWriter) { rw.Accepted("x") }, http.StatusAccepted, "", true},
		{"bad request", func(rw *ResponseWriter) { rw.BadRequest("bad") }, http.StatusBadRequest, ErrCodeBadRequest, false},
		{"not found", func(rw *ResponseWriter) { rw.NotFound("gone") }, http.StatusNotFound, ErrCodeNotFound, false},
		{"conflict", func(rw *ResponseWriter) { rw.Conflict(ErrCodeConflict, "dup") }, http.StatusConflict, ErrCodeConflict, false},
		{"internal", func(rw *ResponseWriter) { rw.InternalError("oops") }, http.StatusInternalServerError, ErrCodeInternalError, false},
		{"unavailable", func(rw *ResponseWriter) { rw.ServiceUnavailable("down") }, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, false},
		{"validation", func(rw *ResponseWriter) { rw.ValidationError("weight is required", map[string]string{"field": "weight"}) }, http.StatusBadRequest, ErrCodeValidationFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			tt.write(NewResponseWriter(w, httptest.NewRequest(http.MethodGet, "/", nil)))

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var resp APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Success != tt.success {
				t.Errorf("Success = %v", resp.Success)
			}
			if tt.code != "" && (resp.Error == nil || resp.Error.Code != tt.code) {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.code)
			}
		})
	}
}

func TestResponseWriter_NoContent(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	NewResponseWriter(w, httptest.NewRequest(http.MethodDelete, "/", nil)).NoContent()
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("NoContent wrote %d with %d bytes", w.Code, w.Body.Len())
	}
}
