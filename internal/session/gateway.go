// Package session implements the session gateway the views talk to and the
// event bus that keeps every open page in step with login and logout.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/taskmanager/internal/apperrors"
	"github.com/isdelr/taskmanager/internal/metrics"
	"github.com/isdelr/taskmanager/internal/models"
	"github.com/isdelr/taskmanager/internal/routes"
	"github.com/isdelr/taskmanager/internal/services"
	"github.com/rs/zerolog/log"
)

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RegisterResult tells the caller where to go once registration succeeded.
type RegisterResult struct {
	User          models.User
	RedirectTo    string
	RedirectAfter time.Duration
}

// Gateway wraps the platform auth provider and the profile store.
type Gateway struct {
	auth          services.AuthProvider
	profiles      services.ProfileStore
	broker        *Broker
	redirectDelay time.Duration
}

// NewGateway creates a new Gateway. broker may be nil.
func NewGateway(auth services.AuthProvider, profiles services.ProfileStore, broker *Broker, redirectDelay time.Duration) *Gateway {
	return &Gateway{
		auth:          auth,
		profiles:      profiles,
		broker:        broker,
		redirectDelay: redirectDelay,
	}
}

// Register signs the user up with the platform and writes the profile row.
// A failed profile insert leaves the platform account in place.
func (g *Gateway) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	user, err := g.auth.SignUp(ctx, in.Email, in.Password, map[string]string{
		services.MetaFirstName: strings.TrimSpace(in.FirstName),
		services.MetaLastName:  strings.TrimSpace(in.LastName),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "failure").Inc()
		return RegisterResult{}, apperrors.Classify(err)
	}

	if err := g.profiles.InsertProfile(ctx, user); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "failure").Inc()
		log.Error().Err(err).Str("user_id", user.ID).Str("email", user.Email).Msg("Profile insert failed after sign-up")
		return RegisterResult{}, &apperrors.AuthError{
			Message: "Unable to save user profile",
			Err:     fmt.Errorf("%w: %v", apperrors.ErrProfileWrite, err),
		}
	}

	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	return RegisterResult{
		User:          user,
		RedirectTo:    routes.Login,
		RedirectAfter: g.redirectDelay,
	}, nil
}

// Login signs the user in with email and password.
func (g *Gateway) Login(ctx context.Context, email, password string) (models.Session, error) {
	session, err := g.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return models.Session{}, apperrors.Classify(err)
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	g.publish(EventStarted, session)
	return session, nil
}

// Logout ends the session behind token once the user confirmed. It reports
// whether the session was ended; platform failures are logged only.
func (g *Gateway) Logout(ctx context.Context, token string, confirmed bool) bool {
	if !confirmed {
		return false
	}

	current, err := g.auth.GetSession(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("Session lookup before logout failed")
	}
	if err := g.auth.SignOut(ctx, token); err != nil {
		log.Error().Err(err).Msg("Platform sign-out failed")
	}

	metrics.AuthAttempts.WithLabelValues("logout", "success").Inc()
	if current != nil {
		g.publish(EventEnded, *current)
	}
	return true
}

// CurrentSession returns the active session for token, or nil if none.
func (g *Gateway) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	session, err := g.auth.GetSession(ctx, token)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return session, nil
}

func (g *Gateway) publish(t EventType, s models.Session) {
	if g.broker == nil {
		return
	}
	g.broker.Publish(Event{Type: t, UserID: s.UserID, SessionID: s.ID})
}
