// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Store errors.
	ErrNotFound          = errors.New("not found")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrTableMissing      = errors.New("table missing")

	// Conversation errors.
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSession    = errors.New("no active session")
	ErrBadToken     = errors.New("malformed button token")
	ErrRateLimited  = errors.New("too many events")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps ErrValidation with the message the user should see.
func NewValidationError(userMessage string) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         ErrValidation,
	}
}

// Unavailable marks err as a backing store failure.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrSourceUnavailable, err)
}

// UserMessage returns the message attached to err, or fallback when there is none.
func UserMessage(err error, fallback string) string {
	var userErr *UserError
	if errors.As(err, &userErr) && userErr.UserMessage != "" {
		return userErr.UserMessage
	}
	return fallback
}
