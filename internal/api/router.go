// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clawspace/pulse/internal/config"
)

// NewRouter wires every endpoint behind the shared middleware stack.
func NewRouter(cfg config.APIConfig, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(cfg))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", handler.HealthLive)
		r.Get("/ready", handler.HealthReady)
		r.Get("/", handler.HealthLive)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(RateLimit(cfg))
		r.Use(Metrics())

		r.Post("/track", handler.Track)
		r.Post("/track/batch", handler.TrackBatch)
		r.Get("/trending", handler.Trending)
	})

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(RateLimit(cfg))
		r.Use(Metrics())

		r.Get("/feed", handler.Feed)
		r.Get("/agents", handler.Agents)
		r.Get("/collaborations", handler.Collaborations)
		r.Get("/patterns", handler.Patterns)
		r.Get("/similar", handler.Similar)
		r.Get("/explain", handler.Explain)
	})

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Use(RateLimit(cfg))
		r.Use(Metrics())

		r.Get("/discover", handler.SearchDiscover)
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Use(RateLimit(cfg))
		r.Use(Metrics())

		r.Put("/posts", handler.UpsertPost)
		r.Put("/agents", handler.UpsertAgent)
	})

	r.Route("/api/v1/preferences", func(r chi.Router) {
		r.Use(RateLimit(cfg))
		r.Use(Metrics())

		r.Get("/{userID}", handler.Preferences)
	})

	return r
}
