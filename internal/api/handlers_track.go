// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/clawspace/pulse/internal/models"
	"github.com/clawspace/pulse/internal/validation"
)

// trackRequest is the payload for recording one engagement event. The
// timestamp is always assigned server-side.
type trackRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	TargetType string `json:"target_type" validate:"required,target_type"`
	TargetID   string `json:"target_id" validate:"required"`
	Kind       string `json:"kind" validate:"required,event_kind"`
}

func (req trackRequest) event() models.EngagementEvent {
	return models.EngagementEvent{
		UserID:     req.UserID,
		TargetType: models.TargetType(req.TargetType),
		TargetID:   req.TargetID,
		Kind:       models.EventKind(req.Kind),
	}
}

// batchTrackRequest is the payload for recording a batch of events.
type batchTrackRequest struct {
	Events []trackRequest `json:"events"`
}

// Track handles POST /api/v1/analytics/track.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	if ve := validation.ValidateStruct(req); ve != nil {
		rw.ValidationError(ve)
		return
	}

	recorded, err := h.ledger.Record(r.Context(), req.event())
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("failed to record event")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to record event")
		return
	}

	rw.Success(recorded)
}

// TrackBatch handles POST /api/v1/analytics/track/batch. Each event is
// validated individually; an invalid event rejects that event only and is
// reported by batch index.
func (h *Handler) TrackBatch(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	var req batchTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	if len(req.Events) == 0 {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Batch contains no events")
		return
	}
	if len(req.Events) > h.cfg.MaxBatchSize {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("Batch exceeds the maximum of %d events", h.cfg.MaxBatchSize))
		return
	}

	events := make([]models.EngagementEvent, len(req.Events))
	for i, e := range req.Events {
		events[i] = e.event()
	}

	recorded, failures := h.ledger.RecordBatch(r.Context(), events)
	rw.Success(models.BatchTrackResult{Recorded: recorded, Failures: failures})
}

// Trending handles GET /api/v1/analytics/trending. Query parameters:
// targetType (post or agent, default post), limit, windowHours.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	limit := queryInt(r, "limit", 0)
	windowHours := queryInt(r, "windowHours", 0)

	targetType := r.URL.Query().Get("targetType")
	if targetType == "" {
		targetType = string(models.TargetPost)
	}

	var (
		items []models.TrendingItem
		err   error
	)
	switch models.TargetType(targetType) {
	case models.TargetPost:
		items, err = h.engine.TrendingPosts(r.Context(), limit, windowHours)
	case models.TargetAgent:
		items, err = h.engine.TrendingAgents(r.Context(), limit, windowHours)
	default:
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "targetType must be post or agent")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("target_type", targetType).Msg("trending query failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to compute trending")
		return
	}

	rw.Success(models.ListResult{Items: items, Count: len(items)})
}
