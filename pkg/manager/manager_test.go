package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bio2bel/bio2bel/pkg/config"
	"github.com/bio2bel/bio2bel/pkg/connection"
	"github.com/bio2bel/bio2bel/pkg/database"
	"github.com/bio2bel/bio2bel/pkg/ledger"
)

const numberTestModels = 5

// testModule owns a single table and fills it with numberTestModels rows.
type testModule struct {
	name      string
	populated int
	fail      error
}

func (tm *testModule) Name() string { return tm.name }

func (tm *testModule) Tables() []Table {
	return []Table{
		{
			Name:   "test_model",
			Create: "CREATE TABLE test_model (model_id INTEGER PRIMARY KEY, label TEXT NOT NULL)",
		},
		{
			Name:   "test_alias",
			Create: "CREATE TABLE test_alias (model_id INTEGER NOT NULL REFERENCES test_model(model_id), alias TEXT NOT NULL)",
		},
	}
}

func (tm *testModule) Populate(ctx context.Context, m *Manager) error {
	tm.populated++
	if tm.fail != nil {
		return tm.fail
	}
	db := m.DB()
	for i := 1; i <= numberTestModels; i++ {
		if _, err := db.ExecContext(ctx, db.Rebind("INSERT INTO test_model (model_id, label) VALUES (?, ?)"), i, fmt.Sprintf("model %d", i)); err != nil {
			return err
		}
	}
	return nil
}

type fixture struct {
	resolver *connection.Resolver
	ledger   *ledger.Ledger
	ledgerDB *database.DB
	conn     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	paths := &config.Paths{
		DataDir:    filepath.Join(dir, "data"),
		ConfigPath: filepath.Join(dir, "config", "config.ini"),
	}
	resolver := connection.NewResolver(paths, connection.WithLookupEnv(func(string) (string, bool) { return "", false }))

	ledgerDB, err := database.Open(context.Background(), "sqlite:///"+filepath.ToSlash(filepath.Join(dir, "ledger.db")))
	require.NoError(t, err)
	t.Cleanup(func() { ledgerDB.Close() })
	require.NoError(t, ledgerDB.Migrate(context.Background()))

	return &fixture{
		resolver: resolver,
		ledger:   ledger.New(ledgerDB),
		ledgerDB: ledgerDB,
		conn:     "sqlite:///" + filepath.ToSlash(filepath.Join(dir, "module.db")),
	}
}

func (f *fixture) newManager(t *testing.T, module Module) *Manager {
	t.Helper()
	m, err := New(context.Background(), module, f.resolver, f.ledger, WithConnection(f.conn))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestNew_InvalidNames(t *testing.T) {
	f := newFixture(t)

	_, err := New(context.Background(), &testModule{name: ""}, f.resolver, f.ledger, WithConnection(f.conn))
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = New(context.Background(), &testModule{name: "Test"}, f.resolver, f.ledger, WithConnection(f.conn))
	assert.ErrorIs(t, err, ErrModuleCase)

	_, err = New(context.Background(), &testModule{name: "../test"}, f.resolver, f.ledger, WithConnection(f.conn))
	assert.ErrorIs(t, err, connection.ErrInvalidModuleName)
}

func TestNew_CreatesTables(t *testing.T) {
	f := newFixture(t)
	m := f.newManager(t, &testModule{name: "test"})

	summary, err := m.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TableCount{{Table: "test_model"}, {Table: "test_alias"}}, summary)

	populated, err := m.IsPopulated(context.Background())
	require.NoError(t, err)
	assert.False(t, populated)

	// Reopening with checkFirst skips existing tables.
	again := f.newManager(t, &testModule{name: "test"})
	assert.NotNil(t, again)

	// Without checkFirst the CREATE runs and fails on the existing table.
	_, err = New(context.Background(), &testModule{name: "test"}, f.resolver, f.ledger, WithConnection(f.conn), WithCheckFirst(false))
	assert.Error(t, err)
}

func TestNew_ResolvesDefaultConnection(t *testing.T) {
	f := newFixture(t)
	m, err := New(context.Background(), &testModule{name: "test"}, f.resolver, f.ledger)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, database.DialectSQLite, m.DB().Dialect())
	assert.FileExists(t, filepath.Join(f.resolver.Paths().DataDir, config.DefaultDatabaseName))
}

func TestPopulate_RecordsBeforeLoading(t *testing.T) {
	f := newFixture(t)
	module := &testModule{name: "test"}
	m := f.newManager(t, module)
	ctx := context.Background()

	session := "unit-test"
	require.NoError(t, m.Populate(ctx, &session))
	assert.Equal(t, 1, module.populated)

	n, err := m.Count(ctx, "test_model")
	require.NoError(t, err)
	assert.EqualValues(t, numberTestModels, n)

	populated, err := m.IsPopulated(ctx)
	require.NoError(t, err)
	assert.True(t, populated)

	actions, err := f.ledger.List(ctx, ledger.Filter{Module: "test"})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ledger.KindPopulate, actions[0].Kind)
	require.NotNil(t, actions[0].Session)
	assert.Equal(t, session, *actions[0].Session)
}

func TestPopulate_FailedLoadKeepsAction(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("download failed")
	m := f.newManager(t, &testModule{name: "test", fail: boom})

	err := m.Populate(context.Background(), nil)
	assert.ErrorIs(t, err, boom)

	count, err := f.ledger.Count(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPopulate_LedgerFailureAborts(t *testing.T) {
	f := newFixture(t)
	module := &testModule{name: "test"}
	m := f.newManager(t, module)
	require.NoError(t, f.ledgerDB.Close())

	err := m.Populate(context.Background(), nil)
	assert.ErrorIs(t, err, ledger.ErrLedgerWrite)
	assert.Zero(t, module.populated)
}

func TestDropAll(t *testing.T) {
	f := newFixture(t)
	m := f.newManager(t, &testModule{name: "test"})
	ctx := context.Background()

	require.NoError(t, m.Populate(ctx, nil))
	require.NoError(t, m.DropAll(ctx, true))

	for _, table := range []string{"test_model", "test_alias"} {
		exists, err := m.DB().TableExists(ctx, table)
		require.NoError(t, err)
		assert.False(t, exists, table)
	}

	// Dropping again is a no-op for the tables but still recorded.
	require.NoError(t, m.DropAll(ctx, true))
	assert.Error(t, m.DropAll(ctx, false))

	actions, err := f.ledger.List(ctx, ledger.Filter{Module: "test"})
	require.NoError(t, err)
	kinds := make([]ledger.Kind, len(actions))
	for i, a := range actions {
		kinds[i] = a.Kind
	}
	assert.Equal(t, []ledger.Kind{ledger.KindPopulate, ledger.KindDrop, ledger.KindDrop, ledger.KindDrop}, kinds)

	require.NoError(t, m.CreateAll(ctx, true))
	exists, err := m.DB().TableExists(ctx, "test_model")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDropAll_LedgerFailureKeepsTables(t *testing.T) {
	f := newFixture(t)
	m := f.newManager(t, &testModule{name: "test"})
	require.NoError(t, f.ledgerDB.Close())

	err := m.DropAll(context.Background(), true)
	assert.ErrorIs(t, err, ledger.ErrLedgerWrite)

	exists, err := m.DB().TableExists(context.Background(), "test_model")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWithPopulateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var seen int
	run := WithPopulateRecord(f.ledger, "Chebi", nil, func(ctx context.Context) error {
		n, err := f.ledger.Count(ctx, "chebi")
		seen = n
		return err
	})
	require.NoError(t, run(ctx))
	assert.Equal(t, 1, seen, "action must be stored before the wrapped function runs")
}

func TestString(t *testing.T) {
	f := newFixture(t)
	m := f.newManager(t, &testModule{name: "hgnc"})

	assert.Regexp(t, `^<HgncManager url=sqlite:///.*module\.db>$`, m.String())
}
