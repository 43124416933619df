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

// statusNotifier lets the authoring and resolution paths push a fresh status
// snapshot to UI subscribers after they touch the queue or cache.
type statusNotifier interface {
	notify(ctx context.Context)
}

type authoringService struct {
	queue    store.MutationQueueRepository
	cache    store.CacheRepository
	registry *registry.Registry
	uuid     *utils.UUIDGenerator
	notifier statusNotifier

	logger *logger.Logger

	now func() time.Time
}

func NewAuthoringService(storages *store.Storages, reg *registry.Registry, notifier statusNotifier, logger *logger.Logger) AuthoringService {
	return &authoringService{
		queue:    storages.Queue,
		cache:    storages.Cache,
		registry: reg,
		uuid:     utils.NewUUIDGenerator(),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordChange implements [AuthoringService]. The ordering is the whole
// point: the mutation is durably queued before the cache is touched, so a
// crash between the two steps loses optimism, never intent.
func (a *authoringService) RecordChange(ctx context.Context, entityType models.EntityType, entityID string, operation models.Operation, payload models.Fields) (models.MutationRecord, error) {
	log := logger.FromContext(ctx)

	if _, err := a.registry.Lookup(entityType); err != nil {
		return models.MutationRecord{}, err
	}
	entityID, err := a.validateChange(entityID, operation, payload)
	if err != nil {
		return models.MutationRecord{}, err
	}

	cached, err := a.cachedEntity(ctx, entityType, entityID)
	if err != nil {
		return models.MutationRecord{}, err
	}

	mutation := models.MutationRecord{
		ID:           a.uuid.Generate(),
		EntityType:   entityType,
		EntityID:     entityID,
		Operation:    operation,
		Payload:      payload.Clone(),
		BaseVersion:  cached.ServerVersion,
		BaseSnapshot: cached.Data.Clone(),
		CreatedAt:    a.now(),
		Status:       models.MutationPending,
	}

	if err = a.queue.Enqueue(ctx, mutation); err != nil {
		return models.MutationRecord{}, fmt.Errorf("enqueue mutation: %w", err)
	}

	if err = a.applyOptimistic(ctx, cached, mutation); err != nil {
		// The mutation is already durable; the cache will be corrected by the
		// next confirmed sync pass.
		log.Err(err).
			Str("func", "authoringService.RecordChange").
			Str("mutation_id", mutation.ID).
			Msg("optimistic cache update failed after enqueue")
		return models.MutationRecord{}, fmt.Errorf("optimistic cache update: %w", err)
	}

	log.Debug().
		Str("mutation_id", mutation.ID).
		Str("entity_type", string(entityType)).
		Str("entity_id", entityID).
		Str("operation", string(operation)).
		Msg("mutation recorded")

	a.notifier.notify(ctx)

	return mutation, nil
}

// GetEntity implements [AuthoringService].
func (a *authoringService) GetEntity(ctx context.Context, entityType models.EntityType, entityID string) (models.CacheEntity, error) {
	if _, err := a.registry.Lookup(entityType); err != nil {
		return models.CacheEntity{}, err
	}
	return a.cache.Get(ctx, entityType, entityID)
}

// ListEntities implements [AuthoringService].
func (a *authoringService) ListEntities(ctx context.Context, entityType models.EntityType) ([]models.CacheEntity, error) {
	if _, err := a.registry.Lookup(entityType); err != nil {
		return nil, err
	}
	return a.cache.ListByType(ctx, entityType)
}

func (a *authoringService) validateChange(entityID string, operation models.Operation, payload models.Fields) (string, error) {
	switch operation {
	case models.OpCreate:
		if len(payload) == 0 {
			return "", fmt.Errorf("%w: create needs the full object", ErrMissingPayload)
		}
		if entityID == "" {
			entityID = a.uuid.Generate()
		}
	case models.OpUpdate:
		if entityID == "" {
			return "", ErrEmptyEntityID
		}
		if len(payload) == 0 {
			return "", fmt.Errorf("%w: update needs the changed fields", ErrMissingPayload)
		}
	case models.OpDelete:
		if entityID == "" {
			return "", ErrEmptyEntityID
		}
		if len(payload) != 0 {
			return "", ErrPayloadOnDelete
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}

	return entityID, nil
}

func (a *authoringService) cachedEntity(ctx context.Context, entityType models.EntityType, entityID string) (models.CacheEntity, error) {
	cached, err := a.cache.Get(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, store.ErrCacheEntityNotFound) {
			return models.CacheEntity{EntityType: entityType, EntityID: entityID}, nil
		}
		return models.CacheEntity{}, fmt.Errorf("read cache entity: %w", err)
	}
	return cached, nil
}

func (a *authoringService) applyOptimistic(ctx context.Context, cached models.CacheEntity, mutation models.MutationRecord) error {
	next := cached
	next.EntityType = mutation.EntityType
	next.EntityID = mutation.EntityID
	next.LocalVersion = cached.LocalVersion + 1
	next.Dirty = true
	next.UpdatedAt = mutation.CreatedAt

	switch mutation.Operation {
	case models.OpCreate:
		next.Data = mutation.Payload.Clone()
		next.Deleted = false
	case models.OpUpdate:
		merged, err := registry.MergeLastWriterWins(cached.Data, mutation.Payload)
		if err != nil {
			return err
		}
		next.Data = merged
	case models.OpDelete:
		next.Deleted = true
	}

	return a.cache.Upsert(ctx, next)
}
