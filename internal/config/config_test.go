// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
}

func TestDefaultEngineConstants(t *testing.T) {
	t.Parallel()

	cfg := Default()

	if cfg.Engine.VelocityWindow != 72*time.Hour {
		t.Errorf("VelocityWindow = %s, want 72h", cfg.Engine.VelocityWindow)
	}
	if cfg.Engine.VelocityBucket != time.Hour {
		t.Errorf("VelocityBucket = %s, want 1h", cfg.Engine.VelocityBucket)
	}
	if cfg.Engine.VelocityHalfLife != 6*time.Hour {
		t.Errorf("VelocityHalfLife = %s, want 6h", cfg.Engine.VelocityHalfLife)
	}
	if cfg.Engine.ProfileWindow != 30*24*time.Hour {
		t.Errorf("ProfileWindow = %s, want 720h", cfg.Engine.ProfileWindow)
	}
	if cfg.Engine.ProfileHalfLife != 14*24*time.Hour {
		t.Errorf("ProfileHalfLife = %s, want 336h", cfg.Engine.ProfileHalfLife)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantSub: "server.port",
		},
		{
			name:    "zero velocity bucket",
			mutate:  func(c *Config) { c.Engine.VelocityBucket = 0 },
			wantSub: "velocity_bucket",
		},
		{
			name:    "window smaller than bucket",
			mutate:  func(c *Config) { c.Engine.VelocityWindow = time.Minute },
			wantSub: "velocity_window",
		},
		{
			name:    "negative half-life",
			mutate:  func(c *Config) { c.Engine.VelocityHalfLife = -time.Hour },
			wantSub: "velocity_half_life",
		},
		{
			name:    "max limit below default",
			mutate:  func(c *Config) { c.Engine.MaxLimit = 5 },
			wantSub: "max_limit",
		},
		{
			name:    "retention shorter than profile window",
			mutate:  func(c *Config) { c.Storage.Retention = 24 * time.Hour },
			wantSub: "storage.retention",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantSub: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"PULSE_SERVER_PORT", "server.port"},
		{"PULSE_STORAGE_PATH", "storage.path"},
		{"PULSE_ENGINE_VELOCITY_HALF_LIFE", "engine.velocity_half_life"},
		{"PULSE_API_RATE_LIMIT_REQS", "api.rate_limit_reqs"},
		{"PULSE_LOGGING_LEVEL", "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.input); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("PULSE_SERVER_PORT", "9001")
	t.Setenv("PULSE_LOGGING_LEVEL", "debug")
	t.Setenv("PULSE_API_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("Port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s, want debug", cfg.Logging.Level)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[0] != "https://a.example" {
		t.Errorf("CORSOrigins = %v", cfg.API.CORSOrigins)
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8650}
	if got := s.Addr(); got != "127.0.0.1:8650" {
		t.Errorf("Addr() = %s", got)
	}
}
