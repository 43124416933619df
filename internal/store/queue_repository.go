package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/models"
)

type mutationQueueRepository struct {
	*DB
	logger *logger.Logger
}

func NewMutationQueueRepository(db *DB, logger *logger.Logger) MutationQueueRepository {
	return &mutationQueueRepository{
		DB:     db,
		logger: logger,
	}
}

func (q *mutationQueueRepository) Enqueue(ctx context.Context, mutation models.MutationRecord) error {
	log := logger.FromContext(ctx)

	_, err := q.DB.ExecContext(ctx, enqueueMutation,
		mutation.ID,
		mutation.EntityType,
		mutation.EntityID,
		mutation.Operation,
		mutation.Payload,
		mutation.BaseVersion,
		mutation.BaseSnapshot,
		mutation.CreatedAt,
		mutation.Attempts,
		nullableTime(mutation.NextAttemptAt),
		mutation.Status,
		mutation.LastError,
	)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.Enqueue").
			Str("mutation_id", mutation.ID).
			Str("entity_id", mutation.EntityID).
			Msg("failed to insert mutation into queue")
		return fmt.Errorf("failed to enqueue mutation (id=%s): %w", mutation.ID, err)
	}

	return nil
}

func (q *mutationQueueRepository) ListActive(ctx context.Context) ([]models.MutationRecord, error) {
	return q.listMutations(ctx, listActiveMutations, "mutationQueueRepository.ListActive")
}

func (q *mutationQueueRepository) ListFailedPermanent(ctx context.Context) ([]models.MutationRecord, error) {
	return q.listMutations(ctx, listFailedPermanentMutations, "mutationQueueRepository.ListFailedPermanent")
}

func (q *mutationQueueRepository) listMutations(ctx context.Context, query, funcName string) ([]models.MutationRecord, error) {
	log := logger.FromContext(ctx)

	rows, err := q.DB.QueryContext(ctx, query)
	if err != nil {
		log.Err(err).
			Str("func", funcName).
			Msg("failed to execute query for listing mutations")
		return nil, fmt.Errorf("failed to query mutations: %w", err)
	}
	defer rows.Close()

	var items []models.MutationRecord

	for rows.Next() {
		item, scanErr := scanMutation(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", funcName).
				Msg("failed to scan mutation row")
			return nil, fmt.Errorf("failed to scan mutation row: %w", scanErr)
		}

		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", funcName).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating mutation rows: %w", rowsErr)
	}

	return items, nil
}

func (q *mutationQueueRepository) Get(ctx context.Context, mutationID string) (models.MutationRecord, error) {
	log := logger.FromContext(ctx)

	row := q.DB.QueryRowContext(ctx, getMutation, mutationID)

	item, err := scanMutation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MutationRecord{}, fmt.Errorf("%w: id=%s", ErrMutationNotFound, mutationID)
		}
		log.Err(err).
			Str("func", "mutationQueueRepository.Get").
			Str("mutation_id", mutationID).
			Msg("failed to scan mutation row")
		return models.MutationRecord{}, fmt.Errorf("failed to scan mutation row: %w", err)
	}

	return item, nil
}

func (q *mutationQueueRepository) MarkInFlight(ctx context.Context, mutationID string) error {
	return q.execOnMutation(ctx, markMutationInFlight, "mutationQueueRepository.MarkInFlight", mutationID)
}

func (q *mutationQueueRepository) Complete(ctx context.Context, mutationID string) error {
	return q.execOnMutation(ctx, completeMutation, "mutationQueueRepository.Complete", mutationID)
}

func (q *mutationQueueRepository) MarkRetry(ctx context.Context, mutationID string, attempts int, nextAttemptAt time.Time, lastError string) error {
	log := logger.FromContext(ctx)

	result, err := q.DB.ExecContext(ctx, markMutationRetry, attempts, nextAttemptAt, lastError, mutationID)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.MarkRetry").
			Str("mutation_id", mutationID).
			Int("attempts", attempts).
			Msg("failed to schedule mutation retry")
		return fmt.Errorf("failed to schedule retry (id=%s): %w", mutationID, err)
	}

	return q.requireAffected(result, mutationID)
}

func (q *mutationQueueRepository) MarkPermanent(ctx context.Context, mutationID string, attempts int, lastError string) error {
	log := logger.FromContext(ctx)

	result, err := q.DB.ExecContext(ctx, markMutationPermanent, attempts, lastError, mutationID)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.MarkPermanent").
			Str("mutation_id", mutationID).
			Msg("failed to mark mutation as permanently failed")
		return fmt.Errorf("failed to mark mutation permanent (id=%s): %w", mutationID, err)
	}

	return q.requireAffected(result, mutationID)
}

func (q *mutationQueueRepository) Revive(ctx context.Context, mutationID string) error {
	log := logger.FromContext(ctx)

	result, err := q.DB.ExecContext(ctx, reviveMutation, mutationID)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.Revive").
			Str("mutation_id", mutationID).
			Msg("failed to revive mutation")
		return fmt.Errorf("failed to revive mutation (id=%s): %w", mutationID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", mutationID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id=%s", ErrMutationNotRevivable, mutationID)
	}

	return nil
}

func (q *mutationQueueRepository) ResetInFlight(ctx context.Context) error {
	log := logger.FromContext(ctx)

	result, err := q.DB.ExecContext(ctx, resetInFlightMutations)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.ResetInFlight").
			Msg("failed to reset in-flight mutations")
		return fmt.Errorf("failed to reset in-flight mutations: %w", err)
	}

	if rowsAffected, raErr := result.RowsAffected(); raErr == nil && rowsAffected > 0 {
		log.Warn().
			Str("func", "mutationQueueRepository.ResetInFlight").
			Int64("count", rowsAffected).
			Msg("recovered mutations stranded in-flight by a previous run")
	}

	return nil
}

func (q *mutationQueueRepository) CountByStatus(ctx context.Context) (map[models.MutationStatus]int, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("status", "COUNT(*)").
		From("mutation_queue").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.CountByStatus").
			Msg("failed to execute queue count query")
		return nil, fmt.Errorf("failed to count mutations by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.MutationStatus]int)

	for rows.Next() {
		var (
			status models.MutationStatus
			count  int
		)
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan queue count row: %w", scanErr)
		}
		counts[status] = count
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("error iterating queue count rows: %w", rowsErr)
	}

	return counts, nil
}

func (q *mutationQueueRepository) execOnMutation(ctx context.Context, query, funcName, mutationID string) error {
	log := logger.FromContext(ctx)

	result, err := q.DB.ExecContext(ctx, query, mutationID)
	if err != nil {
		log.Err(err).
			Str("func", funcName).
			Str("mutation_id", mutationID).
			Msg("failed to execute mutation queue statement")
		return fmt.Errorf("failed to update mutation (id=%s): %w", mutationID, err)
	}

	return q.requireAffected(result, mutationID)
}

func (q *mutationQueueRepository) requireAffected(result sql.Result, mutationID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", mutationID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id=%s", ErrMutationNotFound, mutationID)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMutation(row scanner) (models.MutationRecord, error) {
	var (
		item          models.MutationRecord
		nextAttemptAt sql.NullTime
	)

	err := row.Scan(
		&item.ID,
		&item.EntityType,
		&item.EntityID,
		&item.Operation,
		&item.Payload,
		&item.BaseVersion,
		&item.BaseSnapshot,
		&item.CreatedAt,
		&item.Attempts,
		&nextAttemptAt,
		&item.Status,
		&item.LastError,
	)
	if err != nil {
		return models.MutationRecord{}, err
	}

	if nextAttemptAt.Valid {
		item.NextAttemptAt = nextAttemptAt.Time
	}

	return item, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
