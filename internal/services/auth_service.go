package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/taskmanager/internal/apperrors"
	"github.com/isdelr/taskmanager/internal/auth"
	"github.com/isdelr/taskmanager/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Metadata keys accepted by SignUp.
const (
	MetaFirstName = "first_name"
	MetaLastName  = "last_name"
)

// AuthProvider is the platform authentication surface the session gateway
// depends on.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (models.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (models.Session, error)
	SignOut(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	GetUser(ctx context.Context, token string) (*models.User, error)
}

// AuthOptions tunes the platform auth service.
type AuthOptions struct {
	Secret            []byte
	SessionTTL        time.Duration
	MinPasswordLength int
	BcryptCost        int
}

// AuthService is the self-hosted platform auth provider: bcrypt credentials
// and JWT session tokens backed by a SessionStore.
type AuthService struct {
	db       *sql.DB
	sessions SessionStore
	opts     AuthOptions
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sql.DB, sessions SessionStore, opts AuthOptions) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 6
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{db: db, sessions: sessions, opts: opts, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// SignUp creates a credential record. The password is only stored hashed.
func (s *AuthService) SignUp(ctx context.Context, email, password string, metadata map[string]string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, apperrors.NewAuthError(apperrors.ErrMissingFields, "Email and password are required")
	}
	if len(password) < s.opts.MinPasswordLength {
		return models.User{}, apperrors.NewAuthError(apperrors.ErrWeakPassword,
			fmt.Sprintf("Password should be at least %d characters.", s.opts.MinPasswordLength))
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM credentials WHERE email = ?", email).Scan(&exists)
	if err != nil {
		return models.User{}, fmt.Errorf("lookup credentials: %w", err)
	}
	if exists > 0 {
		return models.User{}, apperrors.NewAuthError(apperrors.ErrUserAlreadyExists, "User already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return models.User{}, fmt.Errorf("encode metadata: %w", err)
	}

	user := models.User{
		ID:        uuid.New().String(),
		Email:     email,
		FirstName: metadata[MetaFirstName],
		LastName:  metadata[MetaLastName],
		CreatedAt: s.now(),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO credentials (id, email, password_hash, metadata_json, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Email, string(hashedPassword), string(metaJSON), user.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperrors.NewAuthError(apperrors.ErrUserAlreadyExists, "User already registered")
		}
		return models.User{}, fmt.Errorf("insert credentials: %w", err)
	}
	return user, nil
}

// SignInWithPassword verifies credentials and issues a new session.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (models.Session, error) {
	invalid := apperrors.NewAuthError(apperrors.ErrInvalidCredentials, "Invalid login credentials")

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.Session{}, invalid
	}

	user, hash, err := s.userByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, invalid
		}
		return models.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return models.Session{}, invalid
	}

	now := s.now()
	session := models.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.SessionTTL),
		User:      user,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return models.Session{}, err
	}

	token, err := auth.GenerateJWT(s.opts.Secret, session)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	session.Token = token
	return session, nil
}

// SignOut revokes the session behind token. Tokens that no longer verify
// have nothing left to revoke.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := auth.ValidateJWT(s.opts.Secret, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			return nil
		}
		return err
	}
	return s.sessions.Revoke(ctx, claims.ID, s.now())
}

// GetSession returns the active session for token, or nil if there is none.
func (s *AuthService) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := auth.ValidateJWT(s.opts.Secret, token)
	if err != nil {
		return nil, nil
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != claims.UserID || !session.Active(s.now()) {
		return nil, nil
	}

	user, _, err := s.userByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	session.User = user
	session.Token = token
	return session, nil
}

// GetUser returns the user behind an active session token.
func (s *AuthService) GetUser(ctx context.Context, token string) (*models.User, error) {
	session, err := s.GetSession(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}
	user := session.User
	return &user, nil
}

func (s *AuthService) userByEmail(ctx context.Context, email string) (models.User, string, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, metadata_json, created_at FROM credentials WHERE email = ?", email)
	return scanCredential(row)
}

func (s *AuthService) userByID(ctx context.Context, id string) (models.User, string, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, metadata_json, created_at FROM credentials WHERE id = ?", id)
	return scanCredential(row)
}

func scanCredential(row *sql.Row) (models.User, string, error) {
	var (
		user      models.User
		hash      string
		metaJSON  sql.NullString
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.Email, &hash, &metaJSON, &createdAt); err != nil {
		return models.User{}, "", err
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	if metaJSON.Valid && metaJSON.String != "" {
		var meta map[string]string
		if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
			user.FirstName = meta[MetaFirstName]
			user.LastName = meta[MetaLastName]
		}
	}
	return user, hash, nil
}
