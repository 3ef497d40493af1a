// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/clawspace/pulse/internal/config"
	"github.com/clawspace/pulse/internal/engine"
	"github.com/clawspace/pulse/internal/ledger"
	"github.com/clawspace/pulse/internal/logging"
)

// ReadyCheck reports whether one dependency is ready to serve.
type ReadyCheck func() error

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	cfg     config.APIConfig
	ledger  *ledger.Ledger
	engine  *engine.Engine
	catalog CatalogSink
	ready   map[string]ReadyCheck
	logger  zerolog.Logger
}

// NewHandler creates the endpoint handler set. catalog may be nil to
// disable ingestion; readyChecks may be nil, each named check gates the
// readiness endpoint.
func NewHandler(cfg config.APIConfig, led *ledger.Ledger, eng *engine.Engine, catalog CatalogSink, readyChecks map[string]ReadyCheck) *Handler {
	return &Handler{
		cfg:     cfg,
		ledger:  led,
		engine:  eng,
		catalog: catalog,
		ready:   readyChecks,
		logger:  logging.With().Str("component", "api").Logger(),
	}
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respond(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady reports readiness of every registered dependency. Any failing
// check yields a 503 naming the failed components.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	components := make(map[string]string, len(h.ready))
	healthy := true
	for name, check := range h.ready {
		if err := check(); err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	if !healthy {
		rw.Error(http.StatusServiceUnavailable, "NOT_READY", "One or more components are not ready")
		return
	}
	rw.Success(map[string]interface{}{"status": "ready", "components": components})
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
