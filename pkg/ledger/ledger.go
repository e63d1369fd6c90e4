// Package ledger records populate and drop lifecycle events per module in an append-only table.
//
// Entries are written before the mutation they describe and the write must commit for the
// mutation to proceed, so an entry means "attempted", not "succeeded".
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/bio2bel/bio2bel/pkg/config"
	"github.com/bio2bel/bio2bel/pkg/connection"
	"github.com/bio2bel/bio2bel/pkg/database"
)

// Kind is the lifecycle event an action records.
type Kind string

const (
	KindPopulate Kind = "populate"
	KindDrop     Kind = "drop"
)

// ErrLedgerWrite is returned when an action could not be durably recorded.
var ErrLedgerWrite = errors.New("ledger write failed")

// Action is one immutable ledger entry.
type Action struct {
	ID         int64
	ModuleName string
	Kind       Kind
	CreatedAt  time.Time
	// Session identifies who performed the action; nil when unknown.
	Session *string
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Module string
	Kind   Kind
	// Limit keeps only the most recent entries when positive.
	Limit int
}

// Ledger appends and reads actions.
type Ledger struct {
	db  *database.DB
	now func() time.Time
}

// New returns a ledger over a migrated database.
func New(db *database.DB) *Ledger {
	return &Ledger{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// RecordPopulate appends a populate action for the module.
func (l *Ledger) RecordPopulate(ctx context.Context, moduleName string, session *string) (*Action, error) {
	return l.record(ctx, moduleName, KindPopulate, session)
}

// RecordDrop appends a drop action for the module.
func (l *Ledger) RecordDrop(ctx context.Context, moduleName string) (*Action, error) {
	return l.record(ctx, moduleName, KindDrop, nil)
}

// StorePopulate is RecordPopulate without the returned entry.
func (l *Ledger) StorePopulate(ctx context.Context, moduleName string, session *string) error {
	_, err := l.RecordPopulate(ctx, moduleName, session)
	return err
}

// StoreDrop is RecordDrop without the returned entry.
func (l *Ledger) StoreDrop(ctx context.Context, moduleName string) error {
	_, err := l.RecordDrop(ctx, moduleName)
	return err
}

func (l *Ledger) record(ctx context.Context, moduleName string, kind Kind, session *string) (*Action, error) {
	module, err := connection.NormalizeModuleName(moduleName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, config.GetTimeouts().Statement)
	defer cancel()

	rec := database.ActionRecord{
		ModuleName: module,
		Action:     string(kind),
		Created:    l.now(),
		Session:    database.NullString(session),
	}
	err = l.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return database.InsertAction(ctx, tx, l.db.Dialect(), &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrLedgerWrite, kind, module, err)
	}

	log.Debug().Int64("id", rec.ID).Str("module", module).Str("action", string(kind)).Msg("Recorded action")
	return toAction(rec), nil
}

// List returns actions in the order they were recorded.
func (l *Ledger) List(ctx context.Context, filter Filter) ([]*Action, error) {
	module := filter.Module
	if module != "" {
		normalized, err := connection.NormalizeModuleName(module)
		if err != nil {
			return nil, err
		}
		module = normalized
	}

	records, err := l.db.ListActions(ctx, database.ActionFilter{
		ModuleName: module,
		Action:     string(filter.Kind),
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, err
	}

	actions := make([]*Action, 0, len(records))
	for _, rec := range records {
		actions = append(actions, toAction(rec))
	}
	return actions, nil
}

// Latest returns the most recent action for a module, or nil if there is none.
func (l *Ledger) Latest(ctx context.Context, moduleName string) (*Action, error) {
	module, err := connection.NormalizeModuleName(moduleName)
	if err != nil {
		return nil, err
	}
	rec, err := l.db.LatestAction(ctx, module)
	if err != nil || rec == nil {
		return nil, err
	}
	return toAction(*rec), nil
}

// Count returns the number of actions for a module, or for all modules when moduleName is empty.
func (l *Ledger) Count(ctx context.Context, moduleName string) (int, error) {
	module := moduleName
	if module != "" {
		normalized, err := connection.NormalizeModuleName(module)
		if err != nil {
			return 0, err
		}
		module = normalized
	}
	return l.db.CountActions(ctx, module)
}

func toAction(rec database.ActionRecord) *Action {
	return &Action{
		ID:         rec.ID,
		ModuleName: rec.ModuleName,
		Kind:       Kind(rec.Action),
		CreatedAt:  rec.Created,
		Session:    database.StringPtr(rec.Session),
	}
}
