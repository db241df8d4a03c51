package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/taskmanager/internal/apperrors"
	"github.com/isdelr/taskmanager/internal/config"
	"github.com/isdelr/taskmanager/internal/models"
	"github.com/isdelr/taskmanager/internal/services"
	"github.com/isdelr/taskmanager/internal/session"
)

// SessionGateway is the session surface the handlers need.
type SessionGateway interface {
	Register(ctx context.Context, in session.RegisterInput) (session.RegisterResult, error)
	Login(ctx context.Context, email, password string) (models.Session, error)
	Logout(ctx context.Context, token string, confirmed bool) bool
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
}

// Options carries the configuration the handlers act on.
type Options struct {
	CookieSecure      bool
	MinPasswordLength int
	TaskListScope     string
	TaskCreateEnabled bool
}

func taskFilter(scope string, s *models.Session) services.TaskFilter {
	if scope == config.ScopeOwner && s != nil {
		return services.TaskFilter{OwnerID: s.UserID}
	}
	return services.TaskFilter{}
}

// authStatus maps an auth flow error to an HTTP status.
func authStatus(err error) int {
	var authErr *apperrors.AuthError
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrProfileWrite):
		return http.StatusInternalServerError
	case errors.As(err, &authErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
