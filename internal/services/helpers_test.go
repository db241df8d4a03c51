package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/taskmanager/internal/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func newTestAuthService(t *testing.T, db *sql.DB) *AuthService {
	t.Helper()
	return NewAuthService(db, NewSQLiteSessionStore(db), AuthOptions{
		Secret:            testSecret,
		SessionTTL:        time.Hour,
		MinPasswordLength: 6,
		BcryptCost:        bcrypt.MinCost,
	})
}
