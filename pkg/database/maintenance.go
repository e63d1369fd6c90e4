package database

import (
	"context"
	"fmt"
)

var vacuumSQL = map[Dialect][]string{
	DialectSQLite:   {"VACUUM", "PRAGMA optimize"},
	DialectPostgres: {"VACUUM ANALYZE"},
}

// Vacuum reclaims space left behind by dropped tables and refreshes planner statistics.
// SQL Server manages file space itself, so Vacuum is a no-op there.
func (db *DB) Vacuum(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, stmt := range vacuumSQL[db.dialect] {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to vacuum database: %w", err)
		}
	}
	return nil
}
