package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidRemoteConfigs indicates invalid remote API settings
	// (for example, missing base URL or zero request timeout).
	ErrInvalidRemoteConfigs = errors.New("invalid remote configuration")
	// ErrInvalidStorageConfigs indicates invalid local storage settings.
	// The mutation queue must survive process restarts, so an empty or
	// in-memory DSN is rejected.
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidEngineConfigs indicates invalid sync scheduling settings
	// (for example, zero sync interval or non-positive max attempts).
	ErrInvalidEngineConfigs = errors.New("invalid engine configuration")
	// ErrInvalidServerConfigs indicates invalid facade settings
	// (for example, missing listen address).
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
)
