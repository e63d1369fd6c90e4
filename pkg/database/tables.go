package database

import (
	"context"
	"fmt"
)

var tableExistsSQL = map[Dialect]string{
	DialectSQLite:    "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
	DialectPostgres:  "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?",
	DialectSQLServer: "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = ?",
}

// TableExists reports whether a table is present in the connected schema.
func (db *DB) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, db.Rebind(tableExistsSQL[db.dialect]), name); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

// CountRows returns the number of rows in a table.
func (db *DB) CountRows(ctx context.Context, table string) (int64, error) {
	quoted, err := db.dialect.QuoteIdentifier(table)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+quoted); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// DropTable drops a table by name.
func (db *DB) DropTable(ctx context.Context, table string) error {
	quoted, err := db.dialect.QuoteIdentifier(table)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE "+quoted); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}
