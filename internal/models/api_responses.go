// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing and caching information.
type Metadata struct {
	// Timestamp is the server time the response was generated.
	Timestamp time.Time `json:"timestamp"`

	// LatencyMS is the total computation time in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Cached reports whether the result was served from a derived-signal
	// cache rather than recomputed.
	Cached bool `json:"cached,omitempty"`
}

// APIError provides a machine-readable code alongside the human message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ListResult wraps a ranked list with a continuation marker for
// incremental loading.
type ListResult struct {
	// Items is the ordered result page.
	Items interface{} `json:"items"`

	// Count is the number of items in this page.
	Count int `json:"count"`

	// HasMore reports whether more results exist beyond this page.
	HasMore bool `json:"has_more"`
}

// BatchTrackResult reports per-event outcomes for batch engagement
// tracking. Invalid events reject individually; valid ones are recorded.
type BatchTrackResult struct {
	// Recorded is the number of successfully appended events.
	Recorded int `json:"recorded"`

	// Failures maps batch index to the rejection message.
	Failures map[int]string `json:"failures,omitempty"`
}
