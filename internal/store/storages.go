package store

import (
	"context"
	"fmt"

	"github.com/selamgebre/birrsync/internal/config"
	"github.com/selamgebre/birrsync/internal/logger"
)

// Storages groups the three on-device repositories into a single value that
// can be passed around the service layer.
type Storages struct {
	// Queue is the durable mutation queue replayed by the sync engine.
	Queue MutationQueueRepository
	// Cache is the local entity mirror the UI reads synchronously.
	Cache CacheRepository
	// Conflicts is the pending set of hard conflicts awaiting resolution.
	Conflicts ConflictRepository
}

// NewStorages initialises the on-device storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DB.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Clears any mutations a previous run left in-flight, so a crash
//     mid-pass never strands a queued write.
//  4. Constructs and returns a [Storages] value wired to fresh repositories.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	queue := NewMutationQueueRepository(db, logger)
	if err := queue.ResetInFlight(context.Background()); err != nil {
		return nil, fmt.Errorf("in-flight recovery failed: %w", err)
	}

	return &Storages{
		Queue:     queue,
		Cache:     NewCacheRepository(db, logger),
		Conflicts: NewConflictRepository(db, logger),
	}, nil
}
