// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

// Package config defines the Pulse configuration structure and loads it from
// layered sources: built-in defaults, an optional YAML file and environment
// variables, with environment taking highest precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Pulse service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Engine   EngineConfig   `koanf:"engine"`
	API      APIConfig      `koanf:"api"`
	Stream   StreamConfig   `koanf:"stream"`
	Patterns PatternsConfig `koanf:"patterns"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageConfig holds engagement ledger persistence settings.
type StorageConfig struct {
	// Path is the Badger database directory. Empty means in-memory only.
	Path string `koanf:"path"`

	// Retention is how long engagement events are kept before TTL expiry.
	// Must cover the profile window or profiles lose history early.
	Retention time.Duration `koanf:"retention"`

	// GCInterval is how often the Badger value log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// EngineConfig holds the recommendation engine tunables.
type EngineConfig struct {
	// Velocity estimation
	VelocityWindow   time.Duration `koanf:"velocity_window"`
	VelocityBucket   time.Duration `koanf:"velocity_bucket"`
	VelocityHalfLife time.Duration `koanf:"velocity_half_life"`

	// Preference profiles
	ProfileWindow   time.Duration `koanf:"profile_window"`
	ProfileHalfLife time.Duration `koanf:"profile_half_life"`

	// Result caching
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Assembly
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// MinEvents is the engagement history size below which a user is
	// treated as cold-start and served trending fallbacks.
	MinEvents int `koanf:"min_events"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	MaxBatchSize      int           `koanf:"max_batch_size"`
}

// StreamConfig holds in-process event stream settings.
type StreamConfig struct {
	// BufferSize is the per-subscriber channel buffer for the in-process
	// pub/sub. Zero makes publishes block on slow subscribers.
	BufferSize int `koanf:"buffer_size"`

	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// PatternsConfig holds behavioral pattern detection settings.
type PatternsConfig struct {
	Enabled bool `koanf:"enabled"`

	// FlushInterval is how often accumulated engagement counts are scored
	// into detected patterns.
	FlushInterval time.Duration `koanf:"flush_interval"`

	// MinFrequency is the event count below which a candidate pattern is
	// not surfaced.
	MinFrequency int `koanf:"min_frequency"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks the configuration for values that would break the engine.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Engine.VelocityBucket <= 0 {
		return fmt.Errorf("engine.velocity_bucket must be positive, got %s", c.Engine.VelocityBucket)
	}
	if c.Engine.VelocityWindow < c.Engine.VelocityBucket {
		return fmt.Errorf("engine.velocity_window (%s) must be at least one bucket (%s)",
			c.Engine.VelocityWindow, c.Engine.VelocityBucket)
	}
	if c.Engine.VelocityHalfLife <= 0 {
		return fmt.Errorf("engine.velocity_half_life must be positive, got %s", c.Engine.VelocityHalfLife)
	}
	if c.Engine.ProfileWindow <= 0 {
		return fmt.Errorf("engine.profile_window must be positive, got %s", c.Engine.ProfileWindow)
	}
	if c.Engine.ProfileHalfLife <= 0 {
		return fmt.Errorf("engine.profile_half_life must be positive, got %s", c.Engine.ProfileHalfLife)
	}
	if c.Engine.DefaultLimit < 1 {
		return fmt.Errorf("engine.default_limit must be at least 1, got %d", c.Engine.DefaultLimit)
	}
	if c.Engine.MaxLimit < c.Engine.DefaultLimit {
		return fmt.Errorf("engine.max_limit (%d) must be >= engine.default_limit (%d)",
			c.Engine.MaxLimit, c.Engine.DefaultLimit)
	}

	if c.Storage.Retention < c.Engine.ProfileWindow {
		return fmt.Errorf("storage.retention (%s) must cover engine.profile_window (%s)",
			c.Storage.Retention, c.Engine.ProfileWindow)
	}

	if c.API.MaxBatchSize < 1 {
		return fmt.Errorf("api.max_batch_size must be at least 1, got %d", c.API.MaxBatchSize)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, disabled; got %q",
			c.Logging.Level)
	}

	return nil
}
