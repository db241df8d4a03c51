package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/isdelr/taskmanager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertCredential(t *testing.T, svc *AuthService, email string) models.User {
	t.Helper()
	user, err := svc.SignUp(context.Background(), email, "secret1", nil)
	require.NoError(t, err)
	return user
}

func TestSQLiteSessionStore_CreateGetRevoke(t *testing.T) {
	db := newTestDB(t)
	user := insertCredential(t, newTestAuthService(t, db), "gina@example.com")
	store := NewSQLiteSessionStore(db)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Create(ctx, models.Session{
		ID: "s1", UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.UserID)
	assert.Nil(t, got.RevokedAt)
	assert.True(t, got.Active(now))

	require.NoError(t, store.Revoke(ctx, "s1", now))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.False(t, got.Active(now))

	missing, err := store.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteSessionStore_PurgeExpired(t *testing.T) {
	db := newTestDB(t)
	user := insertCredential(t, newTestAuthService(t, db), "hank@example.com")
	store := NewSQLiteSessionStore(db)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Create(ctx, models.Session{ID: "live", UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Create(ctx, models.Session{ID: "old", UserID: user.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Create(ctx, models.Session{ID: "gone", UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Revoke(ctx, "gone", now))

	expired, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "old", expired[0].ID)
	assert.Equal(t, user.ID, expired[0].UserID)

	for id, wantPresent := range map[string]bool{"live": true, "old": false, "gone": false} {
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, wantPresent, got != nil, id)
	}
}

func TestSQLiteSessionStore_PurgeExpiredIterationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Unix(1_700_000_000, 0)
	rows := sqlmock.NewRows([]string{"id", "user_id", "created_at", "expires_at"}).
		AddRow("s1", "u1", now.Add(-2*time.Hour).Unix(), now.Add(-time.Hour).Unix()).
		AddRow("s2", "u1", now.Add(-2*time.Hour).Unix(), now.Add(-time.Hour).Unix()).
		RowError(1, errors.New("disk I/O error"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, created_at, expires_at FROM sessions").WillReturnRows(rows)
	mock.ExpectRollback()

	expired, err := NewSQLiteSessionStore(db).PurgeExpired(context.Background(), now)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterate expired sessions")
	assert.Nil(t, expired)
	// No DELETE may run after a failed scan.
	assert.NoError(t, mock.ExpectationsWereMet())
}
