package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// sessionTimeLayout is fixed width so stored stamps compare lexicographically.
const sessionTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveSession inserts or replaces the session of session.UserID.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session model.StoredSession) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	query := `
		INSERT INTO conversation_sessions (user_id, session_id, flow, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			session_id = excluded.session_id,
			flow = excluded.flow,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		session.UserID,
		session.ID,
		string(session.Flow),
		string(session.Payload),
		session.UpdatedAt.UTC().Format(sessionTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	slog.Debug("Saved conversation session",
		"user_id", session.UserID,
		"session_id", session.ID,
		"flow", session.Flow)

	return nil
}

// LoadSession retrieves the session of userID.
func (s *SQLiteStorage) LoadSession(ctx context.Context, userID int64) (model.StoredSession, error) {
	if err := validateContext(ctx); err != nil {
		return model.StoredSession{}, err
	}
	if err := validateUserID(userID); err != nil {
		return model.StoredSession{}, err
	}

	query := `
		SELECT session_id, flow, payload, updated_at
		FROM conversation_sessions
		WHERE user_id = ?
	`

	var (
		session              model.StoredSession
		flow, payload, stamp string
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&session.ID, &flow, &payload, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StoredSession{}, fmt.Errorf("session for user %d: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return model.StoredSession{}, fmt.Errorf("failed to get session: %w", err)
	}

	session.UpdatedAt, err = time.Parse(sessionTimeLayout, stamp)
	if err != nil {
		return model.StoredSession{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	session.UserID = userID
	session.Flow = model.Flow(flow)
	session.Payload = []byte(payload)

	return session, nil
}

// DeleteSession removes the session of userID. Deleting a missing session is not an error.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, userID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUserID(userID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversation_sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeSessions removes every session last updated before cutoff.
func (s *SQLiteStorage) PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_sessions WHERE updated_at < ?`,
		cutoff.UTC().Format(sessionTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if purged > 0 {
		slog.Info("Purged idle conversation sessions", "count", purged)
	}
	return purged, nil
}
