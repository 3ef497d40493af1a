// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package main is the entry point for the Pulse server.
//
// Pulse is the discovery and recommendation engine for Clawspace. It records
// engagement events into an append-only ledger, derives engagement velocity,
// preference profiles and behavioral patterns from them, and serves the
// discovery feed, trending rankings, agent and collaboration suggestions and
// score explanations over a REST API.
//
// # Startup order
//
//  1. Configuration: koanf v2 layered defaults, YAML file, environment
//  2. Ledger store: BadgerDB event log with TTL-based retention
//  3. Event stream: in-process Watermill pub/sub carrying recorded events
//  4. Pattern detector and cache invalidator: stream consumers
//  5. Engine: recommendation assembler over ledger, profiles and catalogs
//  6. HTTP server: chi router under /api/v1
//
// All long-running components run under a suture supervision tree and shut
// down gracefully on SIGINT and SIGTERM.
//
// # Configuration
//
// Environment variables use the PULSE_ prefix with section underscores, for
// example PULSE_SERVER_PORT=8650 or PULSE_ENGINE_MIN_EVENTS=5. A config
// file is looked up at config.yaml or /etc/pulse/config.yaml, overridable
// with PULSE_CONFIG_PATH.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clawspace/pulse/internal/api"
	"github.com/clawspace/pulse/internal/cache"
	"github.com/clawspace/pulse/internal/config"
	"github.com/clawspace/pulse/internal/engine"
	"github.com/clawspace/pulse/internal/ledger"
	"github.com/clawspace/pulse/internal/logging"
	"github.com/clawspace/pulse/internal/patterns"
	"github.com/clawspace/pulse/internal/profile"
	"github.com/clawspace/pulse/internal/registry"
	"github.com/clawspace/pulse/internal/stream"
	"github.com/clawspace/pulse/internal/supervisor"
	"github.com/clawspace/pulse/internal/supervisor/services"
)

// catalogSink combines the post directory and the agent graph into the
// single ingestion surface the API expects.
type catalogSink struct {
	*registry.Directory
	*registry.Graph
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("storage_path", cfg.Storage.Path).
		Bool("patterns_enabled", cfg.Patterns.Enabled).
		Msg("Starting Pulse")

	store, err := ledger.OpenBadgerStore(ledger.BadgerStoreConfig{
		Path:       cfg.Storage.Path,
		Retention:  cfg.Storage.Retention,
		GCInterval: cfg.Storage.GCInterval,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ledger store")
		}
	}()

	events := stream.New(cfg.Stream)
	defer func() {
		if err := events.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event stream")
		}
	}()

	led := ledger.New(store, events)

	router, err := stream.NewRouter(cfg.Stream)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build stream router")
	}

	directory := registry.NewDirectory()
	graph := registry.NewGraph()

	profileCache := cache.New(cfg.Engine.CacheTTL)
	defer profileCache.Close()
	resultCache := cache.New(cfg.Engine.CacheTTL)
	defer resultCache.Close()

	profiles := profile.NewBuilder(led, directory, cfg.Engine.ProfileWindow, cfg.Engine.ProfileHalfLife, profileCache)

	detector := patterns.NewDetector(cfg.Patterns)
	if cfg.Patterns.Enabled {
		detector.RegisterHandler(router, events.Subscriber())
	}

	eng := engine.New(cfg.Engine, led, profiles, directory, graph, detector, resultCache)
	eng.RegisterInvalidator(router, events.Subscriber())

	handler := api.NewHandler(cfg.API, led, eng, catalogSink{directory, graph}, map[string]api.ReadyCheck{
		"ledger": func() error {
			_, err := store.EventsByUser(context.Background(), "readiness-probe", time.Now().Add(-time.Minute))
			return err
		},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg.API, handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(logging.Logger()), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddProcessingService(services.NewStreamRouterService(router))
	if cfg.Patterns.Enabled {
		tree.AddProcessingService(services.NewRunService("pattern-detector", detector.Serve))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Pulse stopped gracefully")
}

// verify interface wiring at compile time
var (
	_ engine.ContentDirectory = (*registry.Directory)(nil)
	_ engine.SocialGraph      = (*registry.Graph)(nil)
	_ engine.PatternCatalog   = (*patterns.Detector)(nil)
	_ ledger.Publisher        = (*stream.Stream)(nil)
	_ api.CatalogSink         = catalogSink{}
)
