package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tutorhub/internal/database"
	"tutorhub/internal/models"
)

// SessionRepository persists server-side sessions
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session
func (r *SessionRepository) Create(ctx context.Context, s models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, username, email, role, login_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.Username, s.Email, string(s.Role), s.LoginTime.UTC(), s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, user_id, username, email, role, login_time, created_at
		FROM sessions
		WHERE id = ?
	`
	var (
		s    models.Session
		role string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.UserID, &s.Username, &s.Email, &role, &s.LoginTime, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	s.Role = models.Role(role)
	return &s, nil
}

// Touch moves a session's login_time forward, restarting its timeout clock
func (r *SessionRepository) Touch(ctx context.Context, id string, loginTime time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET login_time = ? WHERE id = ?`, loginTime.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read extend result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteForUser removes every session belonging to a user
func (r *SessionRepository) DeleteForUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return result.RowsAffected()
}

// DeleteIdleSince removes sessions whose login_time is older than cutoff
func (r *SessionRepository) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE login_time < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
