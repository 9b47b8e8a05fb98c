package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kitchen-store/internal/domain"

	"github.com/jmoiron/sqlx"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// SessionRepository defines the interface for server-side session storage
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	FindValid(ctx context.Context, token string, now time.Time) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session into the database using parameterized queries
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := r.db.Rebind(`
		INSERT INTO user_sessions (user_id, session_token, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.SessionToken,
		session.ExpiresAt.UTC(),
		session.CreatedAt.UTC(),
	).Scan(&session.ID)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// FindValid retrieves a session by token if it is still live at now
func (r *sessionRepository) FindValid(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, session_token, expires_at, created_at
		FROM user_sessions
		WHERE session_token = ? AND expires_at > ?
	`)

	session := &domain.Session{}
	if err := r.db.GetContext(ctx, session, query, token, now.UTC()); err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM user_sessions WHERE session_token = ?`), token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM user_sessions WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpired removes every session that is no longer valid at now
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM user_sessions WHERE expires_at <= ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
