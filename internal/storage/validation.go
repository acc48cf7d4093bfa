// Package storage provides the SQLite backend for tables and sessions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidUserID  = errors.New("invalid user ID")
	ErrInvalidSession = errors.New("invalid session")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRow rejects nil rows; an empty row is a legal spacer.
func validateRow(row []string) error {
	if row == nil {
		return fmt.Errorf("%w: row", ErrNilParameter)
	}
	return nil
}

func validateUserID(userID int64) error {
	if userID == 0 {
		return ErrInvalidUserID
	}
	return nil
}

// validateSession validates a stored session before it is written.
func validateSession(session model.StoredSession) error {
	if err := validateUserID(session.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidSession)
	}
	if !session.Flow.Valid() {
		return fmt.Errorf("%w: unknown flow %q", ErrInvalidSession, session.Flow)
	}
	if len(session.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidSession)
	}
	if session.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: missing update time", ErrInvalidSession)
	}
	return nil
}
