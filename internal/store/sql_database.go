package store

import (
	"database/sql"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/migrations"
)

type DB struct {
	*sql.DB
	logger *logger.Logger
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
