package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/registry"
	"github.com/selamgebre/birrsync/internal/store"
	"github.com/selamgebre/birrsync/internal/utils"
	"github.com/selamgebre/birrsync/models"
)

type conflictResolver struct {
	queue     store.MutationQueueRepository
	cache     store.CacheRepository
	conflicts store.ConflictRepository
	uuid      *utils.UUIDGenerator
	notifier  statusNotifier

	logger *logger.Logger

	now func() time.Time
}

func NewConflictResolver(storages *store.Storages, notifier statusNotifier, logger *logger.Logger) ConflictResolver {
	return &conflictResolver{
		queue:     storages.Queue,
		cache:     storages.Cache,
		conflicts: storages.Conflicts,
		uuid:      utils.NewUUIDGenerator(),
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// ListConflicts implements [ConflictResolver].
func (r *conflictResolver) ListConflicts(ctx context.Context) ([]models.ConflictRecord, error) {
	return r.conflicts.ListUnresolved(ctx)
}

// Resolve implements [ConflictResolver]. The resolution state is written
// last: if queueing the successor mutation fails, the conflict stays pending
// and the whole decision can be retried.
func (r *conflictResolver) Resolve(ctx context.Context, conflictID string, resolution models.Resolution) error {
	log := logger.FromContext(ctx)

	conflict, err := r.conflicts.Get(ctx, conflictID)
	if err != nil {
		return err
	}
	if conflict.Resolution != models.ResolutionUnresolved {
		return fmt.Errorf("%w: id=%s", store.ErrConflictAlreadyResolved, conflictID)
	}

	var state models.ResolutionState

	switch resolution.Choice {
	case models.ResolveLocal:
		state = models.ResolutionLocalWins
		err = r.requeueLocal(ctx, conflict, conflict.LocalMutation.Payload)
	case models.ResolveMerged:
		state = models.ResolutionMerged
		if len(resolution.Merged) == 0 {
			return ErrMissingMergedPayload
		}
		err = r.requeueLocal(ctx, conflict, resolution.Merged)
	case models.ResolveServer:
		state = models.ResolutionServerWins
		err = r.adoptServer(ctx, conflict)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidResolutionChoice, resolution.Choice)
	}
	if err != nil {
		return err
	}

	if err = r.conflicts.SetResolution(ctx, conflictID, state); err != nil {
		return err
	}

	log.Info().
		Str("conflict_id", conflictID).
		Str("entity_id", conflict.EntityID).
		Str("resolution", string(state)).
		Msg("conflict resolved")

	r.notifier.notify(ctx)

	return nil
}

// requeueLocal synthesizes a successor mutation based against the conflict's
// server snapshot, so the next pass replays it as an ordinary write instead
// of re-detecting the same conflict.
func (r *conflictResolver) requeueLocal(ctx context.Context, conflict models.ConflictRecord, payload models.Fields) error {
	snapshot := conflict.ServerSnapshot

	operation := conflict.LocalMutation.Operation
	switch {
	case operation == models.OpCreate && snapshot.Version > 0:
		// The colliding record exists; winning means overwriting it.
		operation = models.OpUpdate
	case operation == models.OpUpdate && !snapshot.Exists():
		// The record is gone server-side; winning means recreating it from
		// the base state plus the local edit.
		operation = models.OpCreate
		full, err := registry.MergeLastWriterWins(conflict.LocalMutation.BaseSnapshot, payload)
		if err != nil {
			return fmt.Errorf("rebuild entity for recreate: %w", err)
		}
		payload = full
	case operation == models.OpDelete && len(payload) == 0:
		payload = nil
	case operation == models.OpDelete:
		// A merged decision keeps the record: the delete turns into an edit
		// of the winning server state, or a recreate when that state is gone.
		if snapshot.Exists() {
			operation = models.OpUpdate
		} else {
			operation = models.OpCreate
			full, err := registry.MergeLastWriterWins(conflict.LocalMutation.BaseSnapshot, payload)
			if err != nil {
				return fmt.Errorf("rebuild entity for recreate: %w", err)
			}
			payload = full
		}
	}

	mutation := models.MutationRecord{
		ID:           r.uuid.Generate(),
		EntityType:   conflict.EntityType,
		EntityID:     conflict.EntityID,
		Operation:    operation,
		Payload:      payload.Clone(),
		BaseVersion:  snapshot.Version,
		BaseSnapshot: snapshot.Data.Clone(),
		CreatedAt:    r.now(),
		Status:       models.MutationPending,
	}

	if err := r.queue.Enqueue(ctx, mutation); err != nil {
		return fmt.Errorf("enqueue resolution mutation: %w", err)
	}

	return r.applyOptimistic(ctx, mutation)
}

func (r *conflictResolver) applyOptimistic(ctx context.Context, mutation models.MutationRecord) error {
	cached, err := r.cache.Get(ctx, mutation.EntityType, mutation.EntityID)
	if err != nil {
		if !errors.Is(err, store.ErrCacheEntityNotFound) {
			return fmt.Errorf("read cache entity: %w", err)
		}
		cached = models.CacheEntity{EntityType: mutation.EntityType, EntityID: mutation.EntityID}
	}

	next := cached
	next.LocalVersion = cached.LocalVersion + 1
	next.Dirty = true
	next.UpdatedAt = mutation.CreatedAt

	switch mutation.Operation {
	case models.OpCreate:
		next.Data = mutation.Payload.Clone()
		next.Deleted = false
	case models.OpUpdate:
		merged, mergeErr := registry.MergeLastWriterWins(cached.Data, mutation.Payload)
		if mergeErr != nil {
			return mergeErr
		}
		next.Data = merged
		// the cache row may be a tombstone from an optimistic delete
		next.Deleted = false
	case models.OpDelete:
		next.Deleted = true
	}

	if err = r.cache.Upsert(ctx, next); err != nil {
		return fmt.Errorf("optimistic cache update: %w", err)
	}

	return nil
}

// adoptServer folds the conflict's server snapshot into the cache as the
// confirmed clean state.
func (r *conflictResolver) adoptServer(ctx context.Context, conflict models.ConflictRecord) error {
	snapshot := conflict.ServerSnapshot

	if snapshot.Version == 0 {
		// The server never held the record; drop the local copy entirely.
		if err := r.cache.Delete(ctx, conflict.EntityType, conflict.EntityID); err != nil {
			return fmt.Errorf("drop cache entity: %w", err)
		}
		return nil
	}

	entity := models.CacheEntity{
		EntityType:    conflict.EntityType,
		EntityID:      conflict.EntityID,
		Data:          snapshot.Data,
		ServerVersion: snapshot.Version,
		LocalVersion:  snapshot.Version,
		Deleted:       snapshot.Deleted,
		UpdatedAt:     r.now(),
	}
	if err := r.cache.Upsert(ctx, entity); err != nil {
		return fmt.Errorf("adopt server snapshot: %w", err)
	}

	return nil
}
