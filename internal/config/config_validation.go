// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies all
// engine invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or one of the sentinel errors
// from errors.go otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Remote.BaseURL == "" || cfg.Remote.RequestTimeout == 0 {
		return ErrInvalidRemoteConfigs
	}

	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Engine.SyncInterval <= 0 || cfg.Engine.BackoffBase <= 0 ||
		cfg.Engine.BackoffCap < cfg.Engine.BackoffBase || cfg.Engine.MaxAttempts <= 0 {
		return ErrInvalidEngineConfigs
	}

	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	return nil
}