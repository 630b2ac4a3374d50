package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voting_rooms/internal/model"

	"github.com/jackc/pgx/v5"
)

// SessionRepository defines operations for session data
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindValidByToken(ctx context.Context, token string, now time.Time) (*model.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpiredForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db DBTX) SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session. Empty client metadata is stored as NULL.
func (r *sessionRepository) Create(ctx context.Context, s *model.Session) error {
	sql := `INSERT INTO sessions (id, user_id, token, ip_address, user_agent, expires_at)
            VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, sql,
		s.ID, s.UserID, s.Token, nullIfEmpty(s.IPAddress), nullIfEmpty(s.UserAgent), s.ExpiresAt,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("failed to create session: %w (%s)", ErrDuplicate, constraint)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindValidByToken retrieves the session for token if it expires after now.
// Missing and expired sessions both yield nil, nil.
func (r *sessionRepository) FindValidByToken(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	s := &model.Session{}
	sql := `SELECT id, user_id, token, COALESCE(ip_address, ''), COALESCE(user_agent, ''), expires_at, created_at, updated_at
            FROM sessions WHERE token = $1 AND expires_at > $2 LIMIT 1`
	err := r.db.QueryRow(ctx, sql, token, now).Scan(
		&s.ID, &s.UserID, &s.Token, &s.IPAddress, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by token: %w", err)
	}
	return s, nil
}

// DeleteByToken removes the session holding token. Deleting an unknown token is not an error.
func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredForUser removes the user's sessions that expired before now
func (r *sessionRepository) DeleteExpiredForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1 AND expires_at < $2`, userID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions for user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes every session that expired before now
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
