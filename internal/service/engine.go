package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/selamgebre/birrsync/internal/adapter"
	"github.com/selamgebre/birrsync/internal/config"
	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/registry"
	"github.com/selamgebre/birrsync/internal/store"
	"github.com/selamgebre/birrsync/internal/utils"
	"github.com/selamgebre/birrsync/models"
)

type replayOutcome int

const (
	replayApplied replayOutcome = iota
	replayMerged
	replayConflict
	replayDeferred
	replayFailed
)

type syncEngine struct {
	queue     store.MutationQueueRepository
	cache     store.CacheRepository
	conflicts store.ConflictRepository
	remote    adapter.RemoteStore
	registry  *registry.Registry
	uuid      *utils.UUIDGenerator
	cfg       config.Engine
	online    func() bool

	logger *logger.Logger

	// group collapses concurrent Sync calls onto one running pass.
	group singleflight.Group
	now   func() time.Time

	mu          sync.Mutex
	subscribers map[int]chan models.SyncStatusSnapshot
	nextSubID   int
}

func NewSyncEngine(storages *store.Storages, remote adapter.RemoteStore, reg *registry.Registry, cfg config.Engine, online func() bool, logger *logger.Logger) SyncEngine {
	return &syncEngine{
		queue:       storages.Queue,
		cache:       storages.Cache,
		conflicts:   storages.Conflicts,
		remote:      remote,
		registry:    reg,
		uuid:        utils.NewUUIDGenerator(),
		cfg:         cfg,
		online:      online,
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[int]chan models.SyncStatusSnapshot),
	}
}

// Sync implements [SyncEngine]. Passes never overlap: a call made while a
// pass is running waits for that pass and shares its result.
func (e *syncEngine) Sync(ctx context.Context) (models.SyncResult, error) {
	v, err, _ := e.group.Do("sync", func() (any, error) {
		return e.runPass(ctx)
	})
	if err != nil {
		return models.SyncResult{}, err
	}

	return v.(models.SyncResult), nil
}

// runPass drains the queue once in global insertion order. Within one entity
// mutations replay strictly FIFO; any non-applied outcome blocks the rest of
// that entity's mutations for the remainder of the pass.
func (e *syncEngine) runPass(ctx context.Context) (models.SyncResult, error) {
	log := logger.FromContext(ctx)

	var result models.SyncResult

	mutations, err := e.queue.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("list queued mutations: %w", err)
	}
	if len(mutations) == 0 {
		return result, nil
	}

	log.Info().Int("queued", len(mutations)).Msg("sync pass started")

	// remaining tracks how many queued mutations each entity still has, so a
	// confirmed write knows whether the entity is fully clean afterwards.
	remaining := make(map[string]int, len(mutations))
	for _, m := range mutations {
		remaining[entityKey(m.EntityType, m.EntityID)]++
	}

	now := e.now()
	blocked := make(map[string]bool)

	for _, mutation := range mutations {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.notify(context.WithoutCancel(ctx))
			return result, ctxErr
		}

		key := entityKey(mutation.EntityType, mutation.EntityID)
		remaining[key]--

		if blocked[key] {
			result.Deferred++
			continue
		}
		if !mutation.NextAttemptAt.IsZero() && mutation.NextAttemptAt.After(now) {
			blocked[key] = true
			result.Deferred++
			continue
		}

		outcome, replayErr := e.replay(ctx, mutation, remaining[key] > 0)
		if replayErr != nil {
			// Local storage failure: the pass cannot make trustworthy
			// progress, stop here and surface it.
			e.notify(context.WithoutCancel(ctx))
			return result, replayErr
		}

		switch outcome {
		case replayApplied:
			result.Applied++
		case replayMerged:
			result.Merged++
		case replayConflict:
			result.Conflicts++
			blocked[key] = true
		case replayDeferred:
			result.Deferred++
			blocked[key] = true
		case replayFailed:
			result.Failed++
			blocked[key] = true
		}
	}

	log.Info().
		Int("applied", result.Applied).
		Int("merged", result.Merged).
		Int("conflicts", result.Conflicts).
		Int("deferred", result.Deferred).
		Int("failed", result.Failed).
		Msg("sync pass finished")

	e.notify(ctx)

	return result, nil
}

// replay pushes one mutation to the remote store. A version conflict during
// the apply means another device won a race after our fetch; the snapshot is
// re-fetched and re-classified once before the mutation is deferred.
func (e *syncEngine) replay(ctx context.Context, mutation models.MutationRecord, hasMore bool) (replayOutcome, error) {
	desc, err := e.registry.Lookup(mutation.EntityType)
	if err != nil {
		// Cannot happen for mutations authored through the service; an
		// unknown type in the queue is unreplayable.
		return e.failPermanent(ctx, mutation, err)
	}

	if err = e.queue.MarkInFlight(ctx, mutation.ID); err != nil {
		return 0, fmt.Errorf("mark mutation in-flight: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		server, fetchErr := e.remote.Fetch(ctx, mutation.EntityType, mutation.EntityID)
		if fetchErr != nil {
			return e.handleRemoteError(ctx, mutation, fetchErr)
		}

		classification, classErr := Classify(mutation, server, desc.Merge)
		if classErr != nil {
			return e.failPermanent(ctx, mutation, classErr)
		}

		if classification.Class == models.ClassHard {
			return e.recordConflict(ctx, mutation, server)
		}

		outcome, applyErr := e.apply(ctx, mutation, server, classification, hasMore)
		if applyErr == nil {
			return outcome, nil
		}
		if errors.Is(applyErr, adapter.ErrVersionConflict) || errors.Is(applyErr, adapter.ErrIDCollision) {
			// Lost a race between fetch and apply; classify against the
			// fresh state once before giving up on this pass.
			continue
		}
		return e.handleRemoteError(ctx, mutation, applyErr)
	}

	// Two races in a row. Leave the mutation queued for the next pass.
	return e.deferMutation(ctx, mutation, "entity kept changing during the pass")
}

func (e *syncEngine) apply(ctx context.Context, mutation models.MutationRecord, server models.RemoteEntity, classification Classification, hasMore bool) (replayOutcome, error) {
	switch mutation.Operation {
	case models.OpCreate:
		applied, err := e.remote.Create(ctx, mutation.EntityType, mutation.EntityID, mutation.Payload)
		if err != nil {
			return 0, err
		}
		return replayApplied, e.confirm(ctx, mutation, applied, hasMore)

	case models.OpDelete:
		if err := e.remote.Delete(ctx, mutation.EntityType, mutation.EntityID, server.Version); err != nil {
			return 0, err
		}
		return replayApplied, e.confirmDelete(ctx, mutation, server)

	case models.OpUpdate:
		outcome := replayApplied
		data := classification.Merged
		if classification.Class == models.ClassClean {
			// Updates carry only the changed fields; the remote store expects
			// the full replacement object.
			full, err := e.mergeFull(mutation, server)
			if err != nil {
				return e.failPermanent(ctx, mutation, err)
			}
			data = full
		} else {
			outcome = replayMerged
		}

		applied, err := e.remote.Update(ctx, mutation.EntityType, mutation.EntityID, data, server.Version)
		if err != nil {
			return 0, err
		}
		return outcome, e.confirm(ctx, mutation, applied, hasMore)

	default:
		return e.failPermanent(ctx, mutation, fmt.Errorf("%w: %q", ErrUnknownOperation, mutation.Operation))
	}
}

func (e *syncEngine) mergeFull(mutation models.MutationRecord, server models.RemoteEntity) (models.Fields, error) {
	desc, err := e.registry.Lookup(mutation.EntityType)
	if err != nil {
		return nil, err
	}
	return desc.Merge(server.Data, mutation.Payload)
}

// confirm completes the mutation and folds the server-confirmed state into
// the cache. With further mutations still queued for the entity the
// optimistic data stays in place and only the confirmed server version moves.
func (e *syncEngine) confirm(ctx context.Context, mutation models.MutationRecord, applied models.RemoteEntity, hasMore bool) error {
	if err := e.queue.Complete(ctx, mutation.ID); err != nil {
		return fmt.Errorf("complete mutation: %w", err)
	}

	entity := models.CacheEntity{
		EntityType:    mutation.EntityType,
		EntityID:      mutation.EntityID,
		Data:          applied.Data,
		ServerVersion: applied.Version,
		LocalVersion:  applied.Version,
		UpdatedAt:     e.now(),
	}

	if hasMore {
		cached, err := e.cache.Get(ctx, mutation.EntityType, mutation.EntityID)
		if err != nil && !errors.Is(err, store.ErrCacheEntityNotFound) {
			return fmt.Errorf("read cache for confirmation: %w", err)
		}
		if err == nil {
			entity.Data = cached.Data
			entity.Deleted = cached.Deleted
			if cached.LocalVersion > applied.Version {
				entity.LocalVersion = cached.LocalVersion
			}
		}
		// queued successors mean the data still holds unconfirmed edits,
		// even when the server version caught up with the local one
		entity.Dirty = true
	}

	if err := e.cache.Upsert(ctx, entity); err != nil {
		return fmt.Errorf("confirm cache entity: %w", err)
	}

	return nil
}

// confirmDelete completes a delete mutation and leaves a clean tombstone, so
// late replays from another queue position can still classify against it.
func (e *syncEngine) confirmDelete(ctx context.Context, mutation models.MutationRecord, server models.RemoteEntity) error {
	if err := e.queue.Complete(ctx, mutation.ID); err != nil {
		return fmt.Errorf("complete mutation: %w", err)
	}

	version := server.Version + 1
	if server.Version == 0 {
		// The server never held the record; nothing to tombstone.
		if err := e.cache.Delete(ctx, mutation.EntityType, mutation.EntityID); err != nil {
			return fmt.Errorf("drop cache entity: %w", err)
		}
		return nil
	}

	entity := models.CacheEntity{
		EntityType:    mutation.EntityType,
		EntityID:      mutation.EntityID,
		ServerVersion: version,
		LocalVersion:  version,
		Deleted:       true,
		UpdatedAt:     e.now(),
	}
	if err := e.cache.Upsert(ctx, entity); err != nil {
		return fmt.Errorf("confirm cache tombstone: %w", err)
	}

	return nil
}

func (e *syncEngine) recordConflict(ctx context.Context, mutation models.MutationRecord, server models.RemoteEntity) (replayOutcome, error) {
	log := logger.FromContext(ctx)

	conflict := models.ConflictRecord{
		ID:             e.uuid.Generate(),
		EntityType:     mutation.EntityType,
		EntityID:       mutation.EntityID,
		LocalMutation:  mutation,
		ServerSnapshot: server,
		DetectedAt:     e.now(),
		Resolution:     models.ResolutionUnresolved,
	}

	if err := e.conflicts.Save(ctx, conflict); err != nil {
		return 0, fmt.Errorf("save conflict: %w", err)
	}
	// The mutation is consumed into the conflict record; resolution decides
	// whether a successor gets queued.
	if err := e.queue.Complete(ctx, mutation.ID); err != nil {
		return 0, fmt.Errorf("consume conflicting mutation: %w", err)
	}

	log.Warn().
		Str("conflict_id", conflict.ID).
		Str("entity_type", string(mutation.EntityType)).
		Str("entity_id", mutation.EntityID).
		Str("operation", string(mutation.Operation)).
		Msg("hard conflict recorded")

	return replayConflict, nil
}

// handleRemoteError sorts a remote failure into retry-with-backoff or
// failed-permanent.
func (e *syncEngine) handleRemoteError(ctx context.Context, mutation models.MutationRecord, remoteErr error) (replayOutcome, error) {
	if adapter.IsPermanent(remoteErr) {
		return e.failPermanent(ctx, mutation, remoteErr)
	}

	attempts := mutation.Attempts + 1
	if attempts >= e.cfg.MaxAttempts {
		return e.failPermanent(ctx, mutation, remoteErr)
	}

	nextAttemptAt := e.now().Add(e.backoffDelay(attempts))
	if err := e.queue.MarkRetry(ctx, mutation.ID, attempts, nextAttemptAt, remoteErr.Error()); err != nil {
		return 0, fmt.Errorf("schedule mutation retry: %w", err)
	}

	logger.FromContext(ctx).Debug().
		Str("mutation_id", mutation.ID).
		Int("attempts", attempts).
		Time("next_attempt_at", nextAttemptAt).
		Msg("mutation deferred after transient failure")

	return replayDeferred, nil
}

func (e *syncEngine) deferMutation(ctx context.Context, mutation models.MutationRecord, reason string) (replayOutcome, error) {
	attempts := mutation.Attempts + 1
	nextAttemptAt := e.now().Add(e.backoffDelay(attempts))
	if err := e.queue.MarkRetry(ctx, mutation.ID, attempts, nextAttemptAt, reason); err != nil {
		return 0, fmt.Errorf("schedule mutation retry: %w", err)
	}
	return replayDeferred, nil
}

func (e *syncEngine) failPermanent(ctx context.Context, mutation models.MutationRecord, cause error) (replayOutcome, error) {
	if err := e.queue.MarkPermanent(ctx, mutation.ID, mutation.Attempts+1, cause.Error()); err != nil {
		return 0, fmt.Errorf("mark mutation permanent: %w", err)
	}

	logger.FromContext(ctx).Error().
		Str("mutation_id", mutation.ID).
		Str("entity_id", mutation.EntityID).
		Str("cause", cause.Error()).
		Msg("mutation failed permanently")

	return replayFailed, nil
}

// backoffDelay doubles the base delay per attempt, bounded by the cap.
func (e *syncEngine) backoffDelay(attempts int) time.Duration {
	delay := e.cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= e.cfg.BackoffCap {
			return e.cfg.BackoffCap
		}
	}
	if delay > e.cfg.BackoffCap {
		return e.cfg.BackoffCap
	}
	return delay
}

// Status implements [SyncEngine].
func (e *syncEngine) Status(ctx context.Context) (models.SyncStatusSnapshot, error) {
	counts, err := e.queue.CountByStatus(ctx)
	if err != nil {
		return models.SyncStatusSnapshot{}, fmt.Errorf("count queued mutations: %w", err)
	}

	conflicts, err := e.conflicts.CountUnresolved(ctx)
	if err != nil {
		return models.SyncStatusSnapshot{}, fmt.Errorf("count unresolved conflicts: %w", err)
	}

	return models.SyncStatusSnapshot{
		Queued: counts[models.MutationPending] +
			counts[models.MutationInFlight] +
			counts[models.MutationFailedRetryable],
		Failed:    counts[models.MutationFailedPermanent],
		Conflicts: conflicts,
		Online:    e.online(),
	}, nil
}

// Subscribe implements [SyncEngine]. Channels are buffered one deep and never
// block the engine: a listener that has not drained yet just misses the
// intermediate snapshot.
func (e *syncEngine) Subscribe() (<-chan models.SyncStatusSnapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++

	ch := make(chan models.SyncStatusSnapshot, 1)
	e.subscribers[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subscribers[id]; ok {
			delete(e.subscribers, id)
			close(ch)
		}
	}

	return ch, cancel
}

// ListFailedMutations implements [SyncEngine].
func (e *syncEngine) ListFailedMutations(ctx context.Context) ([]models.MutationRecord, error) {
	return e.queue.ListFailedPermanent(ctx)
}

// RetryMutation implements [SyncEngine].
func (e *syncEngine) RetryMutation(ctx context.Context, mutationID string) error {
	if err := e.queue.Revive(ctx, mutationID); err != nil {
		return err
	}
	e.notify(ctx)
	return nil
}

// DiscardMutation implements [SyncEngine]. Discarding abandons the change for
// good, so the cache rolls back to the last server-confirmed state. Queued
// successors for the same entity reapply their own edits when they replay.
func (e *syncEngine) DiscardMutation(ctx context.Context, mutationID string) error {
	mutation, err := e.queue.Get(ctx, mutationID)
	if err != nil {
		return err
	}
	if mutation.Status != models.MutationFailedPermanent {
		return fmt.Errorf("%w: id=%s", store.ErrMutationNotRevivable, mutationID)
	}
	if err = e.queue.Complete(ctx, mutationID); err != nil {
		return err
	}
	if err = e.cache.Rollback(ctx, mutation.EntityType, mutation.EntityID, mutation.BaseSnapshot, mutation.BaseVersion); err != nil {
		return err
	}
	e.notify(ctx)
	return nil
}

// notify pushes a fresh snapshot to every subscriber.
func (e *syncEngine) notify(ctx context.Context) {
	snapshot, err := e.Status(ctx)
	if err != nil {
		e.logger.Err(err).Msg("failed to build status snapshot for subscribers")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.subscribers {
		select {
		case ch <- snapshot:
		default:
			// drop the stale snapshot, then try once more
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

func entityKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + "/" + entityID
}
