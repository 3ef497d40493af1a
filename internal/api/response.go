// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package api exposes the engine over HTTP: engagement tracking, trending
// rankings, recommendation surfaces, preference profiles and health. All
// endpoints share one response envelope.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/clawspace/pulse/internal/logging"
	"github.com/clawspace/pulse/internal/models"
	"github.com/clawspace/pulse/internal/validation"
)

// Error codes returned in the response envelope.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeValidationFailed = "VALIDATION_ERROR"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// responder writes envelope responses and tracks request latency.
type responder struct {
	w       http.ResponseWriter
	r       *http.Request
	started time.Time
}

func respond(w http.ResponseWriter, r *http.Request) *responder {
	return &responder{w: w, r: r, started: time.Now()}
}

// Success writes a 200 with the payload in the envelope.
func (rw *responder) Success(data interface{}) {
	rw.SuccessCached(data, false)
}

// SuccessCached writes a 200 and marks whether the payload came from a
// derived-signal cache.
func (rw *responder) SuccessCached(data interface{}, cached bool) {
	rw.writeJSON(http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			LatencyMS: time.Since(rw.started).Milliseconds(),
			Cached:    cached,
		},
	})
}

// Error writes an error envelope with the given status and code.
func (rw *responder) Error(status int, code, message string) {
	rw.writeJSON(status, models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			LatencyMS: time.Since(rw.started).Milliseconds(),
		},
		Error: &models.APIError{Code: code, Message: message},
	})
}

// ValidationError writes a 400 carrying the per-field validation details.
func (rw *responder) ValidationError(ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	rw.writeJSON(http.StatusBadRequest, models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			LatencyMS: time.Since(rw.started).Milliseconds(),
		},
		Error: &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

func (rw *responder) writeJSON(status int, body models.APIResponse) {
	rw.w.Header().Set("Content-Type", "application/json")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
