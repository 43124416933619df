package service

import (
	"context"

	"github.com/selamgebre/birrsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthoringService is the write and read path the local UI talks to. Writes
// are captured as durable mutations first and applied to the cache
// optimistically second; reads come straight from the cache and never touch
// the network.
type AuthoringService interface {
	// RecordChange validates, durably enqueues, and optimistically applies one
	// local write. For creates an empty entityID is replaced with a generated
	// one. Returns the queued mutation.
	RecordChange(ctx context.Context, entityType models.EntityType, entityID string, operation models.Operation, payload models.Fields) (models.MutationRecord, error)

	// GetEntity returns the cached best-known value of one entity.
	GetEntity(ctx context.Context, entityType models.EntityType, entityID string) (models.CacheEntity, error)

	// ListEntities returns all live cached entities of one type.
	ListEntities(ctx context.Context, entityType models.EntityType) ([]models.CacheEntity, error)
}

// SyncEngine drains the mutation queue against the remote store. At most one
// pass runs at a time; concurrent Sync calls coalesce onto the running pass.
type SyncEngine interface {
	// Sync runs one pass over the queue and reports what happened. The
	// advisory online flag never gates it: a user-initiated sync is its own
	// connectivity probe.
	Sync(ctx context.Context) (models.SyncResult, error)

	// Status derives the current queue/conflict counters on demand.
	Status(ctx context.Context) (models.SyncStatusSnapshot, error)

	// Subscribe registers a status listener. The returned cancel func must be
	// called to release it. Slow listeners miss intermediate snapshots rather
	// than blocking the engine.
	Subscribe() (<-chan models.SyncStatusSnapshot, func())

	// ListFailedMutations returns the failed-permanent queue entries.
	ListFailedMutations(ctx context.Context) ([]models.MutationRecord, error)

	// RetryMutation returns a failed-permanent mutation to the queue with a
	// fresh attempt budget.
	RetryMutation(ctx context.Context, mutationID string) error

	// DiscardMutation drops a failed-permanent mutation for good.
	DiscardMutation(ctx context.Context, mutationID string) error
}

// ConflictResolver manages the pending set of hard conflicts.
type ConflictResolver interface {
	ListConflicts(ctx context.Context) ([]models.ConflictRecord, error)

	// Resolve applies the user's decision to one conflict. "local" and
	// "merged" synthesize a fresh mutation against the conflict's server
	// snapshot; "server" adopts the snapshot into the cache.
	Resolve(ctx context.Context, conflictID string, resolution models.Resolution) error
}

// ConnectivityMonitor probes the remote store in the background and keeps an
// advisory online flag. The flag gates scheduled passes only; a user-initiated
// sync always probes for itself.
type ConnectivityMonitor interface {
	Start(ctx context.Context)
	Stop()
	Online() bool
}

// SyncJob is the background scheduler that triggers sync passes while online.
type SyncJob interface {
	Start(ctx context.Context)
	Stop()
}
