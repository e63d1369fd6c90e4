package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ActionRecord is a row of the bio2bel_action table.
type ActionRecord struct {
	ID         int64          `db:"id"`
	ModuleName string         `db:"module_name"`
	Action     string         `db:"action"`
	Created    time.Time      `db:"created"`
	Session    sql.NullString `db:"session"`
}

// ActionFilter narrows ListActions. Zero values match everything.
type ActionFilter struct {
	ModuleName string
	Action     string
	// Limit keeps only the most recent entries when positive.
	Limit int
}

const actionColumns = "id, module_name, action, created, session"

var insertActionSQL = map[Dialect]string{
	DialectSQLite:    "INSERT INTO bio2bel_action (module_name, action, created, session) VALUES (?, ?, ?, ?) RETURNING id",
	DialectPostgres:  "INSERT INTO bio2bel_action (module_name, action, created, session) VALUES (?, ?, ?, ?) RETURNING id",
	DialectSQLServer: "INSERT INTO bio2bel_action (module_name, action, created, session) OUTPUT INSERTED.id VALUES (?, ?, ?, ?)",
}

// InsertAction appends an action inside tx and fills in its ID.
func InsertAction(ctx context.Context, tx *sqlx.Tx, dialect Dialect, rec *ActionRecord) error {
	query, ok := insertActionSQL[dialect]
	if !ok {
		return fmt.Errorf("insert action: unsupported dialect %q", dialect)
	}
	err := tx.QueryRowxContext(ctx, tx.Rebind(query),
		rec.ModuleName,
		rec.Action,
		rec.Created,
		rec.Session,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// ListActions returns actions ordered by id ascending.
func (db *DB) ListActions(ctx context.Context, filter ActionFilter) ([]ActionRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.ModuleName != "" {
		where = append(where, "module_name = ?")
		args = append(args, filter.ModuleName)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, filter.Action)
	}

	var query strings.Builder
	query.WriteString("SELECT ")
	if filter.Limit > 0 && db.dialect == DialectSQLServer {
		fmt.Fprintf(&query, "TOP (%d) ", filter.Limit)
	}
	query.WriteString(actionColumns + " FROM bio2bel_action")
	if len(where) > 0 {
		query.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if filter.Limit > 0 {
		query.WriteString(" ORDER BY id DESC")
		if db.dialect != DialectSQLServer {
			fmt.Fprintf(&query, " LIMIT %d", filter.Limit)
		}
	} else {
		query.WriteString(" ORDER BY id ASC")
	}

	var records []ActionRecord
	if err := db.SelectContext(ctx, &records, db.Rebind(query.String()), args...); err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	if filter.Limit > 0 {
		slices.Reverse(records)
	}
	return records, nil
}

// LatestAction returns the most recent action for a module, or nil if there is none.
func (db *DB) LatestAction(ctx context.Context, moduleName string) (*ActionRecord, error) {
	records, err := db.ListActions(ctx, ActionFilter{ModuleName: moduleName, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// CountActions counts actions, optionally for a single module.
func (db *DB) CountActions(ctx context.Context, moduleName string) (int, error) {
	query := "SELECT COUNT(*) FROM bio2bel_action"
	var args []any
	if moduleName != "" {
		query += " WHERE module_name = ?"
		args = append(args, moduleName)
	}

	var count int
	if err := db.GetContext(ctx, &count, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}
