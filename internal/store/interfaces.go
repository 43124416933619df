package store

import (
	"context"
	"time"

	"github.com/selamgebre/birrsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// MutationQueueRepository is the durable outbound log of local writes. Rows
// leave the table only on successful replay, explicit discard, or consumption
// into a conflict record.
type MutationQueueRepository interface {
	// Enqueue durably appends one mutation. The caller assigns the ID.
	Enqueue(ctx context.Context, mutation models.MutationRecord) error
	// ListActive returns all pending and failed-retryable mutations in global
	// insertion order. Per-entity FIFO scheduling is the engine's job.
	ListActive(ctx context.Context) ([]models.MutationRecord, error)
	// ListFailedPermanent returns mutations that exhausted their attempts or
	// were rejected outright, in insertion order.
	ListFailedPermanent(ctx context.Context) ([]models.MutationRecord, error)
	Get(ctx context.Context, mutationID string) (models.MutationRecord, error)
	MarkInFlight(ctx context.Context, mutationID string) error
	// Complete removes a successfully replayed (or consumed) mutation.
	Complete(ctx context.Context, mutationID string) error
	// MarkRetry records a transient failure and schedules the next attempt.
	MarkRetry(ctx context.Context, mutationID string, attempts int, nextAttemptAt time.Time, lastError string) error
	MarkPermanent(ctx context.Context, mutationID string, attempts int, lastError string) error
	// Revive returns a failed-permanent mutation to pending with a fresh
	// attempt budget.
	Revive(ctx context.Context, mutationID string) error
	// ResetInFlight returns any in-flight rows to pending. Run at startup so a
	// crash mid-pass never strands a mutation.
	ResetInFlight(ctx context.Context) error
	// CountByStatus reports queue depth per lifecycle state.
	CountByStatus(ctx context.Context) (map[models.MutationStatus]int, error)
}

// CacheRepository is the local mirror the UI reads synchronously.
type CacheRepository interface {
	// Upsert writes the entity, rejecting values that break the cache
	// invariants (LocalVersion >= ServerVersion; clean implies equal versions).
	Upsert(ctx context.Context, entity models.CacheEntity) error
	Get(ctx context.Context, entityType models.EntityType, entityID string) (models.CacheEntity, error)
	// ListByType returns all live (non-tombstone) entities of one type.
	ListByType(ctx context.Context, entityType models.EntityType) ([]models.CacheEntity, error)
	Delete(ctx context.Context, entityType models.EntityType, entityID string) error
	// Rollback restores the last known-good server state after a mutation is
	// permanently abandoned. A toVersion of zero means the server never
	// confirmed the entity; the row is removed instead.
	Rollback(ctx context.Context, entityType models.EntityType, entityID string, data models.Fields, toVersion int64) error
}

// ConflictRepository holds hard conflicts awaiting an explicit decision.
type ConflictRepository interface {
	Save(ctx context.Context, conflict models.ConflictRecord) error
	Get(ctx context.Context, conflictID string) (models.ConflictRecord, error)
	// ListUnresolved returns pending conflicts ordered by detection time.
	ListUnresolved(ctx context.Context) ([]models.ConflictRecord, error)
	// SetResolution transitions an unresolved conflict to a terminal state.
	// Resolving twice returns [ErrConflictAlreadyResolved].
	SetResolution(ctx context.Context, conflictID string, state models.ResolutionState) error
	CountUnresolved(ctx context.Context) (int, error)
}
