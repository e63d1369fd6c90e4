package rhea

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bio2bel/bio2bel/pkg/config"
	"github.com/bio2bel/bio2bel/pkg/connection"
	"github.com/bio2bel/bio2bel/pkg/database"
	"github.com/bio2bel/bio2bel/pkg/ledger"
	"github.com/bio2bel/bio2bel/pkg/manager"
)

const sample = "RHEA_ID_MASTER\tRHEA_ID_LR\tRHEA_ID_RL\tRHEA_ID_BI\n" +
	"10000\t10001\t10002\t10003\n" +
	"10004\t10005\t10006\t10007\n" +
	"10008\t10009\t10010\t10011\n"

func newManager(t *testing.T) *manager.Manager {
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

	m, err := manager.New(context.Background(), Module{}, resolver, ledger.New(ledgerDB))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestRegistered(t *testing.T) {
	module, err := manager.Lookup(ModuleName)
	require.NoError(t, err)
	assert.Equal(t, ModuleName, module.Name())
	assert.Contains(t, manager.Modules(), ModuleName)
}

func TestReadDirections(t *testing.T) {
	reactions, err := ReadDirections(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, reactions, 3)
	assert.Equal(t, Reaction{MasterID: 10004, LeftToRightID: 10005, RightToLeftID: 10006, BidirectionalID: 10007}, reactions[1])
}

func TestReadDirections_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty", "", "empty file"},
		{"wrong header", "ID\tLR\tRL\tBI\n", "unexpected header column 1"},
		{"short row", "RHEA_ID_MASTER\tRHEA_ID_LR\tRHEA_ID_RL\tRHEA_ID_BI\n10000\t10001\n", "wrong number of fields"},
		{"not a number", "RHEA_ID_MASTER\tRHEA_ID_LR\tRHEA_ID_RL\tRHEA_ID_BI\n10000\t10001\tx\t10003\n", `line 2: invalid RHEA_ID_RL "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDirections(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPopulate(t *testing.T) {
	m := newManager(t)
	dir, err := m.DataDir()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DirectionsFile), []byte(sample), 0o644))

	require.NoError(t, m.Populate(context.Background(), nil))

	rows, err := m.Count(context.Background(), ReactionTable)
	require.NoError(t, err)
	assert.EqualValues(t, 3, rows)

	populated, err := m.IsPopulated(context.Background())
	require.NoError(t, err)
	assert.True(t, populated)
}

func TestPopulate_MissingSource(t *testing.T) {
	m := newManager(t)

	err := m.Populate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSourceMissing)

	populated, err := m.IsPopulated(context.Background())
	require.NoError(t, err)
	assert.False(t, populated)
}
