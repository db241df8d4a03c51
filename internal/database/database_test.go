package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_CreatesSchema(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	// A second run is a no-op.
	require.NoError(t, Migrate(ctx, db))

	for _, table := range []string{"credentials", "sessions", "users", "tasks"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	version, err := Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer db.Close()

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "app.db?"+pragmas, DSN("app.db"))
	assert.Equal(t, "file:app.db?mode=rwc&"+pragmas, DSN("file:app.db?mode=rwc"))
}

func TestNew_KeepsExistingQuery(t *testing.T) {
	db, err := New("file:" + filepath.Join(t.TempDir(), "query.db") + "?mode=rwc")
	require.NoError(t, err)
	defer db.Close()

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}
