package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrMutationNotFound is returned when a queue operation targets a
	// mutation ID that is not (or no longer) in the queue.
	ErrMutationNotFound = errors.New("mutation was not found")

	// ErrMutationNotRevivable is returned when Revive targets a mutation that
	// is not in the failed-permanent state.
	ErrMutationNotRevivable = errors.New("mutation is not failed-permanent")

	// ErrCacheEntityNotFound is returned when a cache lookup targets an
	// entity (identified by entity_type and entity_id) that has never been
	// cached locally.
	ErrCacheEntityNotFound = errors.New("cache entity was not found")

	// ErrCacheInvariantViolated is returned when an upsert would break the
	// cache's version invariants: LocalVersion must never fall behind
	// ServerVersion, and a clean entity must have equal versions.
	ErrCacheInvariantViolated = errors.New("cache entity violates version invariants")

	// ErrConflictNotFound is returned when a conflict lookup or resolution
	// targets an ID that does not exist.
	ErrConflictNotFound = errors.New("conflict was not found")

	// ErrConflictAlreadyResolved is returned when SetResolution targets a
	// conflict that has already left the unresolved state. Resolutions are
	// terminal and never overwritten.
	ErrConflictAlreadyResolved = errors.New("conflict is already resolved")
)
