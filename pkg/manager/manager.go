// Package manager is the base for data-loading modules. A Manager owns one module's schema on
// the connection resolved for it and records every populate and drop in the action ledger
// before running it.
//
// Data sources implement Module and call Register from an init function; importing the
// source's package makes it available to the CLI.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bio2bel/bio2bel/pkg/connection"
	"github.com/bio2bel/bio2bel/pkg/database"
	"github.com/bio2bel/bio2bel/pkg/ledger"
)

var (
	// ErrMissingName is returned when a module does not declare a name.
	ErrMissingName = errors.New("module name not set")
	// ErrModuleCase is returned when a module name is not all lowercase.
	ErrModuleCase = errors.New("module name should be lowercase")
)

// Table is one table of a module's schema.
type Table struct {
	Name string
	// Create is the CREATE TABLE statement for the table.
	Create string
}

// Module is implemented by each data source.
type Module interface {
	// Name is the lowercase module name, e.g. "hgnc".
	Name() string
	// Tables lists the schema in creation order; tables are dropped in reverse.
	Tables() []Table
	// Populate loads the module's data through m.
	Populate(ctx context.Context, m *Manager) error
}

// Manager binds a Module to its database and the action ledger.
type Manager struct {
	module   Module
	name     string
	db       *database.DB
	ledger   *ledger.Ledger
	resolver *connection.Resolver
}

type options struct {
	connection *string
	checkFirst bool
}

// Option configures New.
type Option func(*options)

// WithConnection uses an explicit connection string instead of resolving one.
func WithConnection(conn string) Option {
	return func(o *options) {
		o.connection = &conn
	}
}

// WithCheckFirst controls whether New skips CREATE statements for tables that already exist.
// Defaults to true.
func WithCheckFirst(checkFirst bool) Option {
	return func(o *options) {
		o.checkFirst = checkFirst
	}
}

// ValidateName checks a module's declared name.
func ValidateName(name string) error {
	if name == "" {
		return ErrMissingName
	}
	if name != strings.ToLower(name) {
		return fmt.Errorf("%w: %q", ErrModuleCase, name)
	}
	_, err := connection.NormalizeModuleName(name)
	return err
}

// New resolves the module's connection, opens it and creates the module's tables.
func New(ctx context.Context, module Module, resolver *connection.Resolver, l *ledger.Ledger, opts ...Option) (*Manager, error) {
	o := options{checkFirst: true}
	for _, opt := range opts {
		opt(&o)
	}

	name := module.Name()
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	conn, err := resolver.Resolve(name, o.connection)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve connection for %s: %w", name, err)
	}

	db, err := database.Open(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", name, err)
	}

	m := &Manager{
		module:   module,
		name:     name,
		db:       db,
		ledger:   l,
		resolver: resolver,
	}

	if err := m.CreateAll(ctx, o.checkFirst); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// Name returns the module name.
func (m *Manager) Name() string {
	return m.name
}

// DB returns the module's database.
func (m *Manager) DB() *database.DB {
	return m.db
}

// DataDir ensures and returns the module's data directory.
func (m *Manager) DataDir() (string, error) {
	return m.resolver.DataDir(m.name)
}

// Close releases the database connection.
func (m *Manager) Close() error {
	return m.db.Close()
}

// CreateAll creates the module's tables. With checkFirst, tables already present are skipped.
func (m *Manager) CreateAll(ctx context.Context, checkFirst bool) error {
	for _, table := range m.module.Tables() {
		if checkFirst {
			exists, err := m.db.TableExists(ctx, table.Name)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
		}
		if _, err := m.db.ExecContext(ctx, table.Create); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
		log.Debug().Str("module", m.name).Str("table", table.Name).Msg("Created table")
	}
	return nil
}

// DropAll records a drop action and then drops the module's tables in reverse order.
// With checkFirst, only tables confirmed present are dropped. Nothing is dropped if the
// ledger write fails.
func (m *Manager) DropAll(ctx context.Context, checkFirst bool) error {
	if err := m.ledger.StoreDrop(ctx, m.name); err != nil {
		return err
	}

	tables := m.module.Tables()
	for i := len(tables) - 1; i >= 0; i-- {
		name := tables[i].Name
		if checkFirst {
			exists, err := m.db.TableExists(ctx, name)
			if err != nil {
				return err
			}
			if !exists {
				continue
			}
		}
		if err := m.db.DropTable(ctx, name); err != nil {
			return err
		}
	}

	log.Info().Str("module", m.name).Msg("Dropped module tables")
	return nil
}

// Populate records a populate action and then runs the module's loader.
// The module's loader does not run if the ledger write fails.
func (m *Manager) Populate(ctx context.Context, session *string) error {
	run := WithPopulateRecord(m.ledger, m.name, session, func(ctx context.Context) error {
		return m.module.Populate(ctx, m)
	})
	if err := run(ctx); err != nil {
		return err
	}
	log.Info().Str("module", m.name).Msg("Populated module")
	return nil
}

// WithPopulateRecord wraps fn so that a populate action is stored for module before fn runs.
func WithPopulateRecord(l *ledger.Ledger, module string, session *string, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := l.StorePopulate(ctx, module, session); err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			return fmt.Errorf("populate %s: %w", module, err)
		}
		return nil
	}
}

// TableCount is the row count of one table.
type TableCount struct {
	Table string
	Rows  int64
}

// Count returns the number of rows in one of the module's tables.
func (m *Manager) Count(ctx context.Context, table string) (int64, error) {
	return m.db.CountRows(ctx, table)
}

// Summarize counts the rows of every table in schema order.
func (m *Manager) Summarize(ctx context.Context) ([]TableCount, error) {
	tables := m.module.Tables()
	counts := make([]TableCount, 0, len(tables))
	for _, table := range tables {
		n, err := m.Count(ctx, table.Name)
		if err != nil {
			return nil, err
		}
		counts = append(counts, TableCount{Table: table.Name, Rows: n})
	}
	return counts, nil
}

// IsPopulated reports whether the module's first table has any rows.
func (m *Manager) IsPopulated(ctx context.Context) (bool, error) {
	tables := m.module.Tables()
	if len(tables) == 0 {
		return false, nil
	}
	n, err := m.Count(ctx, tables[0].Name)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *Manager) String() string {
	title := strings.ToUpper(m.name[:1]) + m.name[1:]
	return fmt.Sprintf("<%sManager url=%s>", title, m.db)
}
