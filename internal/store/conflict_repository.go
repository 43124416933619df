package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/models"
)

type conflictRepository struct {
	*DB
	logger *logger.Logger
}

func NewConflictRepository(db *DB, logger *logger.Logger) ConflictRepository {
	return &conflictRepository{
		DB:     db,
		logger: logger,
	}
}

func (c *conflictRepository) Save(ctx context.Context, conflict models.ConflictRecord) error {
	log := logger.FromContext(ctx)

	localMutation, err := json.Marshal(conflict.LocalMutation)
	if err != nil {
		return fmt.Errorf("failed to encode local mutation (conflict_id=%s): %w", conflict.ID, err)
	}
	serverSnapshot, err := json.Marshal(conflict.ServerSnapshot)
	if err != nil {
		return fmt.Errorf("failed to encode server snapshot (conflict_id=%s): %w", conflict.ID, err)
	}

	_, err = c.DB.ExecContext(ctx, saveConflict,
		conflict.ID,
		conflict.EntityType,
		conflict.EntityID,
		localMutation,
		serverSnapshot,
		conflict.DetectedAt,
		conflict.Resolution,
	)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Save").
			Str("conflict_id", conflict.ID).
			Str("entity_id", conflict.EntityID).
			Msg("failed to insert conflict record")
		return fmt.Errorf("failed to save conflict (id=%s): %w", conflict.ID, err)
	}

	return nil
}

func (c *conflictRepository) Get(ctx context.Context, conflictID string) (models.ConflictRecord, error) {
	log := logger.FromContext(ctx)

	row := c.DB.QueryRowContext(ctx, getConflict, conflictID)

	item, err := scanConflict(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ConflictRecord{}, fmt.Errorf("%w: id=%s", ErrConflictNotFound, conflictID)
		}
		log.Err(err).
			Str("func", "conflictRepository.Get").
			Str("conflict_id", conflictID).
			Msg("failed to scan conflict row")
		return models.ConflictRecord{}, fmt.Errorf("failed to scan conflict row: %w", err)
	}

	return item, nil
}

func (c *conflictRepository) ListUnresolved(ctx context.Context) ([]models.ConflictRecord, error) {
	log := logger.FromContext(ctx)

	rows, err := c.DB.QueryContext(ctx, listUnresolvedConflicts)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.ListUnresolved").
			Msg("failed to execute query for listing unresolved conflicts")
		return nil, fmt.Errorf("failed to query unresolved conflicts: %w", err)
	}
	defer rows.Close()

	var items []models.ConflictRecord

	for rows.Next() {
		item, scanErr := scanConflict(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "conflictRepository.ListUnresolved").
				Msg("failed to scan conflict row")
			return nil, fmt.Errorf("failed to scan conflict row: %w", scanErr)
		}

		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "conflictRepository.ListUnresolved").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating conflict rows: %w", rowsErr)
	}

	return items, nil
}

func (c *conflictRepository) SetResolution(ctx context.Context, conflictID string, state models.ResolutionState) error {
	log := logger.FromContext(ctx)

	result, err := c.DB.ExecContext(ctx, setConflictResolution, state, conflictID)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.SetResolution").
			Str("conflict_id", conflictID).
			Str("resolution", string(state)).
			Msg("failed to execute conflict resolution update")
		return fmt.Errorf("failed to resolve conflict (id=%s): %w", conflictID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", conflictID, err)
	}
	if rowsAffected == 0 {
		// distinguish "never existed" from "already resolved"
		if _, getErr := c.Get(ctx, conflictID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: id=%s", ErrConflictAlreadyResolved, conflictID)
	}

	return nil
}

func (c *conflictRepository) CountUnresolved(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("COUNT(*)").
		From("conflicts").
		Where(sq.Eq{"resolution": models.ResolutionUnresolved}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err = c.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "conflictRepository.CountUnresolved").
			Msg("failed to count unresolved conflicts")
		return 0, fmt.Errorf("failed to count unresolved conflicts: %w", err)
	}

	return count, nil
}

func scanConflict(row scanner) (models.ConflictRecord, error) {
	var (
		item           models.ConflictRecord
		localMutation  []byte
		serverSnapshot []byte
	)

	err := row.Scan(
		&item.ID,
		&item.EntityType,
		&item.EntityID,
		&localMutation,
		&serverSnapshot,
		&item.DetectedAt,
		&item.Resolution,
	)
	if err != nil {
		return models.ConflictRecord{}, err
	}

	if err = json.Unmarshal(localMutation, &item.LocalMutation); err != nil {
		return models.ConflictRecord{}, fmt.Errorf("failed to decode local mutation: %w", err)
	}
	if err = json.Unmarshal(serverSnapshot, &item.ServerSnapshot); err != nil {
		return models.ConflictRecord{}, fmt.Errorf("failed to decode server snapshot: %w", err)
	}

	return item, nil
}
