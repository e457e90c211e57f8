// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/feedgraph/internal/ingest"
	"github.com/tomtom215/feedgraph/internal/logging"
	"github.com/tomtom215/feedgraph/internal/models"
	"github.com/tomtom215/feedgraph/internal/validation"
)

// statusFor maps the error taxonomy to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, validation.ErrInvalidWeight):
		return http.StatusBadRequest, ErrCodeValidationFailed
	case errors.Is(err, ingest.ErrIngestionInProgress):
		return http.StatusConflict, ErrCodeIngestionRunning
	case errors.Is(err, models.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// respondError writes err through the envelope. Server-side failures are
// logged and their text withheld from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		evt := logging.Ctx(r.Context()).Error()
		if status == http.StatusServiceUnavailable {
			evt = logging.Ctx(r.Context()).Warn()
		}
		evt.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
		msg = http.StatusText(status)
	}
	NewResponseWriter(w, r).Error(status, code, msg)
}

// respondValidation writes a validator failure as a 400.
func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	NewResponseWriter(w, r).ValidationError(verr.Error(), verr.Details())
}
