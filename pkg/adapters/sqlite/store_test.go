package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}

func TestStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, openTempStore(t))
}

func TestStore_InMemory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ports.RunSessionStoreContract(t, store)
}

func TestStore_ReopenKeepsSessionsAndMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)
	s := domain.NewSession("s")
	s.Variables["appointment_time"] = "Monday"
	require.NoError(t, first.Save(ctx, "s", s))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "Monday", loaded.Variables["appointment_time"])

	var applied int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM "+migrationTable).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestUpMigration(t *testing.T) {
	got := upMigration("-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;")
	assert.Equal(t, "CREATE TABLE a (x);", got)
	assert.Equal(t, "SELECT 1;", upMigration("SELECT 1;"))
}
