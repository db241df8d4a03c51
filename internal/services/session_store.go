package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/taskmanager/internal/models"
)

// SessionStore is the platform's server-side registry of issued sessions.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	// PurgeExpired removes revoked and expired sessions and returns the ones
	// that expired while still live.
	PurgeExpired(ctx context.Context, now time.Time) ([]models.Session, error)
}

// SQLiteSessionStore keeps sessions in the sessions table.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSQLiteSessionStore creates a new SQLiteSessionStore.
func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Create inserts a session record.
func (s *SQLiteSessionStore) Create(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, session.CreatedAt.Unix(), session.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get returns the session with the given ID, or nil if none exists.
func (s *SQLiteSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var (
		session   models.Session
		createdAt int64
		expiresAt int64
		revokedAt sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?", id)
	if err := row.Scan(&session.ID, &session.UserID, &createdAt, &expiresAt, &revokedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	session.CreatedAt = time.Unix(createdAt, 0)
	session.ExpiresAt = time.Unix(expiresAt, 0)
	if revokedAt.Valid {
		t := time.Unix(revokedAt.Int64, 0)
		session.RevokedAt = &t
	}
	return &session, nil
}

// Revoke marks a session as revoked. Revoking an unknown session is a no-op.
func (s *SQLiteSessionStore) Revoke(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL", at.Unix(), id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired and revoked sessions.
func (s *SQLiteSessionStore) PurgeExpired(ctx context.Context, now time.Time) ([]models.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		"SELECT id, user_id, created_at, expires_at FROM sessions WHERE revoked_at IS NULL AND expires_at <= ?", now.Unix())
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}
	var expired []models.Session
	for rows.Next() {
		var (
			session   models.Session
			createdAt int64
			expiresAt int64
		)
		if err := rows.Scan(&session.ID, &session.UserID, &createdAt, &expiresAt); err != nil {
			rows.Close()
			return nil, err
		}
		session.CreatedAt = time.Unix(createdAt, 0)
		session.ExpiresAt = time.Unix(expiresAt, 0)
		expired = append(expired, session)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sessions WHERE revoked_at IS NOT NULL OR expires_at <= ?", now.Unix()); err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return expired, nil
}
