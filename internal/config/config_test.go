// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"CONFIG": "/path/to/config.json",

		"REMOTE_BASE_URL":        "https://api.example.et",
		"REMOTE_TOKEN":           "secret-token",
		"REMOTE_REQUEST_TIMEOUT": "30s",

		"STORAGE_DB_DSN": "/var/lib/birrsync/sync.db",

		"ENGINE_SYNC_INTERVAL":  "45s",
		"ENGINE_PROBE_INTERVAL": "15s",
		"ENGINE_BACKOFF_BASE":   "2s",
		"ENGINE_BACKOFF_CAP":    "5m",
		"ENGINE_MAX_ATTEMPTS":   "8",

		"SERVER_ADDRESS":         "127.0.0.1:7542",
		"SERVER_REQUEST_TIMEOUT": "10s",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "https://api.example.et", cfg.Remote.BaseURL)
	assert.Equal(t, "secret-token", cfg.Remote.Token)
	assert.Equal(t, 30*time.Second, cfg.Remote.RequestTimeout)

	assert.Equal(t, "/var/lib/birrsync/sync.db", cfg.Storage.DB.DSN)

	assert.Equal(t, 45*time.Second, cfg.Engine.SyncInterval)
	assert.Equal(t, 15*time.Second, cfg.Engine.ProbeInterval)
	assert.Equal(t, 2*time.Second, cfg.Engine.BackoffBase)
	assert.Equal(t, 5*time.Minute, cfg.Engine.BackoffCap)
	assert.Equal(t, 8, cfg.Engine.MaxAttempts)

	assert.Equal(t, "127.0.0.1:7542", cfg.Server.HTTPAddress)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
}

func TestParseJSON_StringDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	payload := `{
		"remote": {"base_url": "https://api.example.et", "request_timeout": "20s"},
		"storage": {"db": {"dsn": "/data/sync.db"}},
		"engine": {"sync_interval": "1m", "max_attempts": 4},
		"server": {"http_address": "127.0.0.1:9000"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.et", cfg.Remote.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Remote.RequestTimeout)
	assert.Equal(t, "/data/sync.db", cfg.Storage.DB.DSN)
	assert.Equal(t, time.Minute, cfg.Engine.SyncInterval)
	assert.Equal(t, 4, cfg.Engine.MaxAttempts)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.HTTPAddress)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	_, err := parseJSON("/no/such/file.json")
	require.Error(t, err)
}

func TestBuilder_EnvWinsOverDefaults(t *testing.T) {
	env := &StructuredConfig{
		Remote:  Remote{BaseURL: "https://api.example.et"},
		Storage: Storage{DB: DB{DSN: "/data/sync.db"}},
		Engine:  Engine{SyncInterval: 2 * time.Minute},
	}

	b := newConfigBuilder()
	b.configs = append(b.configs, env, defaults())

	cfg, err := b.build()
	require.NoError(t, err)

	// explicit value preserved, gaps filled from defaults
	assert.Equal(t, 2*time.Minute, cfg.Engine.SyncInterval)
	assert.Equal(t, 2*time.Second, cfg.Engine.BackoffBase)
	assert.Equal(t, 5*time.Minute, cfg.Engine.BackoffCap)
	assert.Equal(t, 8, cfg.Engine.MaxAttempts)
	assert.Equal(t, "127.0.0.1:7542", cfg.Server.HTTPAddress)
}

// ── validation ───────────────────────────────────────────────────────────────

func validConfig() *StructuredConfig {
	cfg := defaults()
	cfg.Remote.BaseURL = "https://api.example.et"
	cfg.Storage.DB.DSN = "/data/sync.db"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().validate())
}

func TestValidate_MissingRemote(t *testing.T) {
	cfg := validConfig()
	cfg.Remote.BaseURL = ""

	assert.ErrorIs(t, cfg.validate(), ErrInvalidRemoteConfigs)
}

func TestValidate_InMemoryDSNRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DB.DSN = ":memory:"

	assert.ErrorIs(t, cfg.validate(), ErrInvalidStorageConfigs)
}

func TestValidate_BackoffCapBelowBase(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.BackoffBase = time.Minute
	cfg.Engine.BackoffCap = time.Second

	assert.ErrorIs(t, cfg.validate(), ErrInvalidEngineConfigs)
}