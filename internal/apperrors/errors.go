// Package apperrors defines the error taxonomy shared by the auth and task
// flows and the messages each kind renders to the user.
package apperrors

import (
	"errors"
	"fmt"
)

// GenericMessage is shown for any failure that is not an AuthError.
const GenericMessage = "Something went wrong. Please try again."

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("weak password")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrTitleRequired      = errors.New("title is required")
	ErrProfileWrite       = errors.New("profile write failed")
)

// AuthError is a credential or validation failure reported by the platform.
// Message is displayed verbatim.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError builds an AuthError carrying a sentinel cause.
func NewAuthError(cause error, message string) *AuthError {
	return &AuthError{Message: message, Err: cause}
}

// DataError is a failure of a data-store operation. It is logged and the
// caller degrades to an empty result.
type DataError struct {
	Op  string
	Err error
}

func (e *DataError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *DataError) Unwrap() error { return e.Err }

// UnexpectedError wraps anything that is neither an AuthError nor a DataError.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	if e.Err == nil {
		return "unexpected error"
	}
	return "unexpected error: " + e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// Classify returns err unchanged when it is already part of the taxonomy and
// wraps it as UnexpectedError otherwise.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var authErr *AuthError
	var dataErr *DataError
	var unexpected *UnexpectedError
	if errors.As(err, &authErr) || errors.As(err, &dataErr) || errors.As(err, &unexpected) {
		return err
	}
	return &UnexpectedError{Err: err}
}

// UserMessage returns the text a form should render for err.
func UserMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return GenericMessage
}
