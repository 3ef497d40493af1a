// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clawspace/pulse/internal/engine"
	"github.com/clawspace/pulse/internal/models"
)

// Feed handles GET /api/v1/recommendations/feed. Query parameters: userId
// (required), limit, offset.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "userId is required")
		return
	}

	result, err := h.engine.DiscoverFeed(r.Context(), userID, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("feed assembly failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to assemble feed")
		return
	}

	rw.Success(models.ListResult{Items: result.Items, Count: len(result.Items), HasMore: result.HasMore})
}

// Agents handles GET /api/v1/recommendations/agents.
func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	h.feedSurface(w, r, h.engine.AgentRecommendations, "agent recommendations failed")
}

// Patterns handles GET /api/v1/recommendations/patterns.
func (h *Handler) Patterns(w http.ResponseWriter, r *http.Request) {
	h.feedSurface(w, r, h.engine.PatternRecommendations, "pattern recommendations failed")
}

// Collaborations handles GET /api/v1/recommendations/collaborations.
func (h *Handler) Collaborations(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "userId is required")
		return
	}

	suggestions, err := h.engine.CollaborationSuggestions(r.Context(), userID, queryInt(r, "limit", 0))
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("collaboration suggestions failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to compute suggestions")
		return
	}

	rw.Success(models.ListResult{Items: suggestions, Count: len(suggestions)})
}

// Similar handles GET /api/v1/recommendations/similar. Query parameters:
// itemId (required), limit. Only posts have content similarity.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	itemID := r.URL.Query().Get("itemId")
	if itemID == "" {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "itemId is required")
		return
	}

	result, err := h.engine.SimilarContent(r.Context(), itemID, queryInt(r, "limit", 0))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			rw.Error(http.StatusNotFound, ErrCodeNotFound, "Unknown post")
			return
		}
		h.logger.Error().Err(err).Str("item_id", itemID).Msg("similar content failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to compute similar content")
		return
	}

	rw.Success(models.ListResult{Items: result.Items, Count: len(result.Items), HasMore: result.HasMore})
}

// Explain handles GET /api/v1/recommendations/explain. Query parameters:
// userId, itemId, itemType (post, agent or pattern).
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	userID := r.URL.Query().Get("userId")
	itemID := r.URL.Query().Get("itemId")
	itemType := r.URL.Query().Get("itemType")
	if userID == "" || itemID == "" || itemType == "" {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "userId, itemId and itemType are required")
		return
	}
	if !models.TargetType(itemType).Valid() {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "itemType must be post, agent or pattern")
		return
	}

	explanation, err := h.engine.Explain(r.Context(), userID, models.TargetType(itemType), itemID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			rw.Error(http.StatusNotFound, ErrCodeNotFound, "Unknown target")
			return
		}
		h.logger.Error().Err(err).Str("item_id", itemID).Msg("explanation failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to explain score")
		return
	}

	rw.Success(explanation)
}

// Preferences handles GET /api/v1/preferences/{userID}.
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	userID := chi.URLParam(r, "userID")
	if userID == "" {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "userID is required")
		return
	}

	prefs, err := h.engine.PreferenceProfile(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("profile build failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to build profile")
		return
	}

	rw.Success(prefs)
}

// feedSurface is the shared shape of the agent and pattern surfaces: a
// userId plus limit in, a ranked FeedResult out.
func (h *Handler) feedSurface(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID string, limit int) (engine.FeedResult, error), failMsg string) {
	rw := respond(w, r)

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "userId is required")
		return
	}

	result, err := fn(r.Context(), userID, queryInt(r, "limit", 0))
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg(failMsg)
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to compute recommendations")
		return
	}

	rw.Success(models.ListResult{Items: result.Items, Count: len(result.Items), HasMore: result.HasMore})
}
