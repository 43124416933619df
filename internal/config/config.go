// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the birrsync
// engine. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, an optional JSON
// file, and built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Remote holds connection settings for the remote persistence API the
	// engine replays mutations against.
	Remote Remote `envPrefix:"REMOTE_"`

	// Storage holds the on-device SQLite settings for the mutation queue,
	// entity cache, and conflict set.
	Storage Storage `envPrefix:"STORAGE_"`

	// Engine holds sync scheduling and retry-backoff settings.
	Engine Engine `envPrefix:"ENGINE_"`

	// Server holds the localhost HTTP facade settings the PWA UI talks to.
	Server Server `envPrefix:"SERVER_"`

	// JSONFilePath is the optional path to a JSON configuration file. When
	// non-empty, the file is parsed and merged on top of the values already
	// loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Remote holds connection settings for the remote persistence API.
type Remote struct {
	// BaseURL is the root URL of the remote persistence API
	// (e.g. "https://api.example.et").
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// Token is the bearer token attached to every remote request.
	// Env: REMOTE_TOKEN
	Token string `env:"TOKEN"`

	// RequestTimeout is the maximum duration allowed for a single outbound
	// request (e.g. "30s"). Timeouts count as transient failures.
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage groups the configuration for the on-device store.
type Storage struct {
	// DB holds the local database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path. The queue and cache must survive process
	// restarts, so in-memory DSNs are rejected by validation.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Engine holds sync scheduling and retry settings.
type Engine struct {
	// SyncInterval is how often the background job triggers a sync pass
	// while online and the queue is non-empty (e.g. "45s").
	// Env: ENGINE_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// ProbeInterval is how often connectivity is probed (e.g. "15s").
	// Env: ENGINE_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// BackoffBase is the delay after the first transient failure; each
	// further failure doubles it (e.g. "2s").
	// Env: ENGINE_BACKOFF_BASE
	BackoffBase time.Duration `env:"BACKOFF_BASE"`

	// BackoffCap bounds the doubled delay (e.g. "5m").
	// Env: ENGINE_BACKOFF_CAP
	BackoffCap time.Duration `env:"BACKOFF_CAP"`

	// MaxAttempts is the number of sync attempts a mutation gets before it
	// is moved to failed-permanent.
	// Env: ENGINE_MAX_ATTEMPTS
	MaxAttempts int `env:"MAX_ATTEMPTS"`
}

// Server holds the localhost HTTP facade settings.
type Server struct {
	// HTTPAddress is the TCP address the facade listens on, in "host:port"
	// format (e.g. "127.0.0.1:7542").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// facade request (e.g. "10s").
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// defaults returns the built-in fallback values merged in last, so any field
// left zero by env/flags/JSON gets a sane default.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		Remote: Remote{
			RequestTimeout: 30 * time.Second,
		},
		Engine: Engine{
			SyncInterval:  45 * time.Second,
			ProbeInterval: 15 * time.Second,
			BackoffBase:   2 * time.Second,
			BackoffCap:    5 * time.Minute,
			MaxAttempts:   8,
		},
		Server: Server{
			HTTPAddress:    "127.0.0.1:7542",
			RequestTimeout: 10 * time.Second,
		},
	}
}

// GetConfig loads, merges, and validates the engine configuration from all
// available sources in the following priority order (first non-zero value
// wins):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}