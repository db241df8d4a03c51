package models

import "time"

// Session is a time-bounded proof of authentication bound to a User.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Token     string     `json:"token,omitempty"` // Signed JWT handed to the client
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"-"`
	User      User       `json:"user"`
}

// Active reports whether the session is neither revoked nor expired at t.
func (s Session) Active(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}
