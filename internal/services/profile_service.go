package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/taskmanager/internal/models"
)

// ProfileStore writes and reads application-owned user profile rows.
type ProfileStore interface {
	InsertProfile(ctx context.Context, user models.User) error
	GetProfile(ctx context.Context, id string) (models.User, error)
}

// ProfileService provides access to the users table.
type ProfileService struct {
	db *sql.DB
}

// NewProfileService creates a new ProfileService.
func NewProfileService(db *sql.DB) *ProfileService {
	return &ProfileService{db: db}
}

// InsertProfile writes a profile row for a freshly registered user.
func (s *ProfileService) InsertProfile(ctx context.Context, user models.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, first_name, last_name, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Email, user.FirstName, user.LastName, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a single profile by user ID.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, first_name, last_name, created_at FROM users WHERE id = ?", id)
	if err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("profile for user %s not found", id)
		}
		return models.User{}, err
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return user, nil
}
