// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"net/http"

	"github.com/clawspace/pulse/internal/models"
)

// SearchDiscover handles GET /api/v1/search/discover. Query parameters:
// q (required), type (post or agent, empty for both), limit, and
// includeTrending, which blends engagement momentum into relevance.
func (h *Handler) SearchDiscover(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	query := r.URL.Query().Get("q")
	if query == "" {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "q is required")
		return
	}

	targetType := models.TargetType(r.URL.Query().Get("type"))
	switch targetType {
	case "", models.TargetPost, models.TargetAgent:
	default:
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "type must be post or agent")
		return
	}

	limit := queryInt(r, "limit", 0)
	includeTrending := r.URL.Query().Get("includeTrending") == "true"

	results, err := h.engine.SearchDiscover(r.Context(), query, targetType, limit, includeTrending)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("discovery search failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to run search")
		return
	}

	rw.Success(models.ListResult{Items: results, Count: len(results)})
}
