// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/clawspace/pulse/internal/models"
	"github.com/clawspace/pulse/internal/validation"
)

// CatalogSink receives post and agent metadata pushed by the feed service.
// Satisfied by the registry package.
type CatalogSink interface {
	UpsertPost(post models.Post)
	UpsertAgent(agent models.Agent)
}

type postUpsertRequest struct {
	ID          string    `json:"id" validate:"required"`
	AuthorID    string    `json:"author_id" validate:"required"`
	CommunityID string    `json:"community_id"`
	Topics      []string  `json:"topics"`
	CreatedAt   time.Time `json:"created_at"`
}

type agentUpsertRequest struct {
	ID                  string    `json:"id" validate:"required"`
	Handle              string    `json:"handle"`
	Skills              []string  `json:"skills"`
	FollowedCommunities []string  `json:"followed_communities"`
	Connections         []string  `json:"connections"`
	CreatedAt           time.Time `json:"created_at"`
}

// UpsertPost handles PUT /api/v1/catalog/posts.
func (h *Handler) UpsertPost(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	if h.catalog == nil {
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Catalog ingestion is not enabled")
		return
	}

	var req postUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	if ve := validation.ValidateStruct(req); ve != nil {
		rw.ValidationError(ve)
		return
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	h.catalog.UpsertPost(models.Post{
		ID:          req.ID,
		AuthorID:    req.AuthorID,
		CommunityID: req.CommunityID,
		Topics:      req.Topics,
		CreatedAt:   req.CreatedAt.UTC(),
	})
	rw.Success(map[string]string{"id": req.ID})
}

// UpsertAgent handles PUT /api/v1/catalog/agents.
func (h *Handler) UpsertAgent(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	if h.catalog == nil {
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Catalog ingestion is not enabled")
		return
	}

	var req agentUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	if ve := validation.ValidateStruct(req); ve != nil {
		rw.ValidationError(ve)
		return
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	h.catalog.UpsertAgent(models.Agent{
		ID:                  req.ID,
		Handle:              req.Handle,
		Skills:              req.Skills,
		FollowedCommunities: req.FollowedCommunities,
		Connections:         req.Connections,
		CreatedAt:           req.CreatedAt.UTC(),
	})
	rw.Success(map[string]string{"id": req.ID})
}
