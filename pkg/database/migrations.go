package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const migrationsTable = "bio2bel_schema_migrations"

type migration struct {
	Version int
	Name    string
	SQL     map[Dialect]string
}

var createMigrationsTable = map[Dialect]string{
	DialectSQLite: `
		CREATE TABLE IF NOT EXISTS bio2bel_schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	DialectPostgres: `
		CREATE TABLE IF NOT EXISTS bio2bel_schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
	DialectSQLServer: `
		IF OBJECT_ID(N'bio2bel_schema_migrations', N'U') IS NULL
		CREATE TABLE bio2bel_schema_migrations (
			version INT PRIMARY KEY,
			applied_at DATETIME2 DEFAULT SYSUTCDATETIME()
		)`,
}

// Migrate runs all database migrations
func (db *DB) Migrate(ctx context.Context) error {
	log.Debug().Str("connection", db.connection).Msg("Running database migrations")

	if _, err := db.ExecContext(ctx, createMigrationsTable[db.dialect]); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM "+migrationsTable).Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	log.Trace().Int("current_version", currentVersion).Msg("Current schema version")

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying migration")

		if err := db.Transaction(ctx, func(tx *sqlx.Tx) error {
			// Split by semicolons so each statement is executed and errors are caught
			statements := splitSQLStatements(m.SQL[db.dialect])
			for i, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d statement %d failed: %w", m.Version, i+1, err)
				}
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO "+migrationsTable+" (version) VALUES (?)"), m.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}

			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

// splitSQLStatements splits a SQL string into individual statements.
// It handles comments and only returns non-empty statements.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		// Skip empty lines and comments
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		// Check if line ends with semicolon (statement complete)
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	// Handle any remaining content without trailing semicolon
	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "action_ledger",
		SQL: map[Dialect]string{
			DialectSQLite: `
				-- Append-only record of populate/drop events per module
				CREATE TABLE bio2bel_action (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					module_name TEXT NOT NULL CHECK (module_name <> '' AND module_name = lower(module_name)),
					action TEXT NOT NULL CHECK (action IN ('populate', 'drop')),
					created TIMESTAMP NOT NULL,
					session TEXT
				);

				CREATE INDEX idx_bio2bel_action_module ON bio2bel_action(module_name, id);
			`,
			DialectPostgres: `
				CREATE TABLE bio2bel_action (
					id BIGSERIAL PRIMARY KEY,
					module_name VARCHAR(255) NOT NULL CHECK (module_name <> '' AND module_name = lower(module_name)),
					action VARCHAR(16) NOT NULL CHECK (action IN ('populate', 'drop')),
					created TIMESTAMPTZ NOT NULL,
					session TEXT
				);

				CREATE INDEX idx_bio2bel_action_module ON bio2bel_action(module_name, id);
			`,
			DialectSQLServer: `
				CREATE TABLE bio2bel_action (
					id BIGINT IDENTITY(1,1) PRIMARY KEY,
					module_name NVARCHAR(255) NOT NULL CHECK (module_name <> ''),
					action NVARCHAR(16) NOT NULL CHECK (action IN ('populate', 'drop')),
					created DATETIME2 NOT NULL,
					session NVARCHAR(MAX) NULL
				);

				CREATE INDEX idx_bio2bel_action_module ON bio2bel_action(module_name, id);
			`,
		},
	},
}
