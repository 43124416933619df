package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/models"
)

type cacheRepository struct {
	*DB
	logger *logger.Logger
}

func NewCacheRepository(db *DB, logger *logger.Logger) CacheRepository {
	return &cacheRepository{
		DB:     db,
		logger: logger,
	}
}

func (c *cacheRepository) Upsert(ctx context.Context, entity models.CacheEntity) error {
	log := logger.FromContext(ctx)

	if err := validateCacheEntity(entity); err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Upsert").
			Str("entity_type", string(entity.EntityType)).
			Str("entity_id", entity.EntityID).
			Int64("server_version", entity.ServerVersion).
			Int64("local_version", entity.LocalVersion).
			Msg("rejected cache upsert")
		return err
	}

	_, err := c.DB.ExecContext(ctx, upsertCacheEntity,
		entity.EntityType,
		entity.EntityID,
		entity.Data,
		entity.ServerVersion,
		entity.LocalVersion,
		entity.Dirty,
		entity.Deleted,
		entity.UpdatedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Upsert").
			Str("entity_type", string(entity.EntityType)).
			Str("entity_id", entity.EntityID).
			Msg("failed to execute upsert for cache entity")
		return fmt.Errorf("failed to upsert cache entity (%s/%s): %w", entity.EntityType, entity.EntityID, err)
	}

	return nil
}

func (c *cacheRepository) Get(ctx context.Context, entityType models.EntityType, entityID string) (models.CacheEntity, error) {
	log := logger.FromContext(ctx)

	row := c.DB.QueryRowContext(ctx, getCacheEntity, entityType, entityID)

	var item models.CacheEntity
	err := row.Scan(
		&item.EntityType,
		&item.EntityID,
		&item.Data,
		&item.ServerVersion,
		&item.LocalVersion,
		&item.Dirty,
		&item.Deleted,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CacheEntity{}, fmt.Errorf("%w: %s/%s", ErrCacheEntityNotFound, entityType, entityID)
		}
		log.Err(err).
			Str("func", "cacheRepository.Get").
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Msg("failed to scan cache entity row")
		return models.CacheEntity{}, fmt.Errorf("failed to scan cache entity row: %w", err)
	}

	return item, nil
}

func (c *cacheRepository) ListByType(ctx context.Context, entityType models.EntityType) ([]models.CacheEntity, error) {
	log := logger.FromContext(ctx)

	rows, err := c.DB.QueryContext(ctx, listCacheEntitiesByType, entityType)
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.ListByType").
			Str("entity_type", string(entityType)).
			Msg("failed to execute query for listing cache entities")
		return nil, fmt.Errorf("failed to query cache entities: %w", err)
	}
	defer rows.Close()

	var items []models.CacheEntity

	for rows.Next() {
		var item models.CacheEntity

		scanErr := rows.Scan(
			&item.EntityType,
			&item.EntityID,
			&item.Data,
			&item.ServerVersion,
			&item.LocalVersion,
			&item.Dirty,
			&item.Deleted,
			&item.UpdatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "cacheRepository.ListByType").
				Str("entity_type", string(entityType)).
				Msg("failed to scan cache entity row")
			return nil, fmt.Errorf("failed to scan cache entity row: %w", scanErr)
		}

		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "cacheRepository.ListByType").
			Str("entity_type", string(entityType)).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating cache entity rows: %w", rowsErr)
	}

	return items, nil
}

func (c *cacheRepository) Delete(ctx context.Context, entityType models.EntityType, entityID string) error {
	log := logger.FromContext(ctx)

	_, err := c.DB.ExecContext(ctx, deleteCacheEntity, entityType, entityID)
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Delete").
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Msg("failed to execute delete for cache entity")
		return fmt.Errorf("failed to delete cache entity (%s/%s): %w", entityType, entityID, err)
	}

	return nil
}

func (c *cacheRepository) Rollback(ctx context.Context, entityType models.EntityType, entityID string, data models.Fields, toVersion int64) error {
	log := logger.FromContext(ctx)

	if toVersion <= 0 {
		return c.Delete(ctx, entityType, entityID)
	}

	_, err := c.DB.ExecContext(ctx, upsertCacheEntity,
		entityType,
		entityID,
		data,
		toVersion,
		toVersion,
		false,
		false,
		time.Now(),
	)
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Rollback").
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Int64("to_version", toVersion).
			Msg("failed to roll back cache entity")
		return fmt.Errorf("failed to roll back cache entity (%s/%s): %w", entityType, entityID, err)
	}

	return nil
}

func validateCacheEntity(entity models.CacheEntity) error {
	if entity.LocalVersion < entity.ServerVersion {
		return fmt.Errorf("%w: local version %d behind server version %d (%s/%s)",
			ErrCacheInvariantViolated, entity.LocalVersion, entity.ServerVersion, entity.EntityType, entity.EntityID)
	}
	if !entity.Dirty && entity.LocalVersion != entity.ServerVersion {
		return fmt.Errorf("%w: clean entity with diverged versions %d/%d (%s/%s)",
			ErrCacheInvariantViolated, entity.LocalVersion, entity.ServerVersion, entity.EntityType, entity.EntityID)
	}

	return nil
}
