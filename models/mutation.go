package models

import "time"

// MutationStatus is the lifecycle state of a queued mutation.
type MutationStatus string

const (
	// MutationPending — authored, waiting for the next sync pass.
	MutationPending MutationStatus = "pending"
	// MutationInFlight — currently being replayed against the remote store.
	MutationInFlight MutationStatus = "in-flight"
	// MutationFailedRetryable — last attempt hit a transient condition; the
	// record stays queued and becomes due again at NextAttemptAt.
	MutationFailedRetryable MutationStatus = "failed-retryable"
	// MutationFailedPermanent — attempts exhausted or the remote rejected the
	// write as invalid. Surfaced to the UI separately from the queued count,
	// never silently dropped.
	MutationFailedPermanent MutationStatus = "failed-permanent"
)

// MutationRecord is a single pending local write, durably logged at authoring
// time and replayed by the sync engine in strict per-entity FIFO order.
type MutationRecord struct {
	// ID is assigned at creation (UUIDv7) and reused on every replay attempt
	// so the remote store can deduplicate.
	ID string `json:"id"`

	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Operation  Operation  `json:"operation"`

	// Payload is the full object for a create, the changed fields for an
	// update, nil for a delete.
	Payload Fields `json:"payload,omitempty"`

	// BaseVersion is the server version the entity had locally when this
	// mutation was authored. Conflict classification compares it against the
	// entity's current server version.
	BaseVersion int64 `json:"baseVersion"`

	// BaseSnapshot is the entity data as of BaseVersion, captured from the
	// cache at authoring time. It is the common ancestor of the three-way
	// field diff that separates soft from hard conflicts.
	BaseSnapshot Fields `json:"baseSnapshot,omitempty"`

	// CreatedAt orders replay within an entity. Mutations for one entity are
	// never reordered or parallelized.
	CreatedAt time.Time `json:"createdAt"`

	// Attempts counts sync attempts made so far; it drives the exponential
	// backoff and the eventual transition to failed-permanent.
	Attempts int `json:"attempts"`

	// NextAttemptAt is the earliest time the record is due again after a
	// retryable failure. Zero means due immediately.
	NextAttemptAt time.Time `json:"nextAttemptAt,omitempty"`

	Status MutationStatus `json:"status"`

	// LastError holds the text of the most recent failure, for surfacing
	// permanently failed mutations to the user.
	LastError string `json:"lastError,omitempty"`
}

// Replayable reports whether the record may still be picked up by a sync
// pass. failed-permanent records require manual attention instead.
func (m MutationRecord) Replayable() bool {
	return m.Status == MutationPending || m.Status == MutationFailedRetryable
}
