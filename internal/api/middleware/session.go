package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/isdelr/taskmanager/internal/auth"
	"github.com/isdelr/taskmanager/internal/metrics"
	"github.com/isdelr/taskmanager/internal/models"
	"github.com/isdelr/taskmanager/internal/routes"
	"github.com/rs/zerolog/log"
)

// SessionResolver looks up the active session behind a token.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
}

// RequireSession is the route guard for protected routes. The wrapped handler
// only runs with an active session stored in the request context; otherwise
// onMissing answers the request.
func RequireSession(resolver SessionResolver, onMissing http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := resolver.CurrentSession(r.Context(), auth.TokenFromRequest(r))
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("Session lookup failed")
			}
			if session == nil {
				metrics.GuardRejections.Inc()
				onMissing(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// RedirectToLogin sends browsers to the login page.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, routes.Login, http.StatusSeeOther)
}

// RejectUnauthorized answers API clients with a JSON 401.
func RejectUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
}
