package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/taskmanager/internal/apperrors"
	"github.com/isdelr/taskmanager/internal/models"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// Claims defines the JWT claims structure. RegisteredClaims.ID holds the
// session ID so a token can be revoked server-side.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type contextKey string

// SessionKey is the context key for the authenticated session.
const SessionKey = contextKey("session")

// GenerateJWT signs a token for the given session.
func GenerateJWT(secret []byte, session models.Session) (string, error) {
	claims := &Claims{
		UserID: session.UserID,
		Email:  session.User.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateJWT parses and validates a JWT string.
func ValidateJWT(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" || claims.UserID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// TokenFromRequest extracts the session token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetSessionCookie stores the token in an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// WithSession returns a copy of ctx carrying the session.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// SessionFromContext returns the session stored by the route guard.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*models.Session)
	return session, ok && session != nil
}
