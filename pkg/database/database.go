package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// DB wraps a SQL connection opened from a bio2bel connection string.
type DB struct {
	*sqlx.DB
	dialect    Dialect
	connection string
	mu         sync.Mutex
}

// Open parses a connection string and opens the matching database.
// The connection is verified with a ping bounded by ctx.
func Open(ctx context.Context, connection string) (*DB, error) {
	target, err := ParseConnection(connection)
	if err != nil {
		return nil, err
	}

	if err := target.prepare(); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(target.DriverName, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	target.configurePool(sqlDB)

	log.Debug().Str("dialect", string(target.Dialect)).Str("connection", target.Display).Msg("Database connection established")

	return &DB{
		DB:         sqlx.NewDb(sqlDB, target.DriverName),
		dialect:    target.Dialect,
		connection: target.Display,
	}, nil
}

// Dialect returns the SQL dialect of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// String returns the connection string with any password redacted.
func (db *DB) String() string {
	return db.connection
}

// Transaction wraps a function in a database transaction
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
