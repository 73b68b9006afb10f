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

// AttemptRepository stores failed-login counters keyed by the raw username string
type AttemptRepository struct {
	db *database.DB
}

// NewAttemptRepository creates a new login attempt repository
func NewAttemptRepository(db *database.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Get returns the counter for username
func (r *AttemptRepository) Get(ctx context.Context, username string) (*models.LoginAttempt, error) {
	return getAttempt(ctx, r.db, username)
}

// RecordFailure increments the counter for username and moves its window start to now.
// A counter whose window already closed restarts at one.
func (r *AttemptRepository) RecordFailure(ctx context.Context, username string, now time.Time, window time.Duration) (*models.LoginAttempt, error) {
	now = now.UTC()
	var recorded models.LoginAttempt

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		existing, err := getAttempt(ctx, tx, username)
		if errors.Is(err, ErrNotFound) {
			recorded = models.LoginAttempt{Username: username, AttemptCount: 1, WindowStart: now}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO login_attempts (username, attempt_count, window_start) VALUES (?, ?, ?)`,
				username, recorded.AttemptCount, now)
			return err
		}
		if err != nil {
			return err
		}

		count := existing.AttemptCount + 1
		if !existing.InWindow(now, window) {
			count = 1
		}
		recorded = models.LoginAttempt{Username: username, AttemptCount: count, WindowStart: now}
		_, err = tx.ExecContext(ctx,
			`UPDATE login_attempts SET attempt_count = ?, window_start = ? WHERE username = ?`,
			count, now, username)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record login failure: %w", err)
	}
	return &recorded, nil
}

// Clear removes the counter for username
func (r *AttemptRepository) Clear(ctx context.Context, username string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE username = ?`, username); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}

// DeleteStale removes counters whose window started before cutoff
func (r *AttemptRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE window_start < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale login attempts: %w", err)
	}
	return result.RowsAffected()
}

func getAttempt(ctx context.Context, q database.DBTX, username string) (*models.LoginAttempt, error) {
	var a models.LoginAttempt
	err := q.QueryRowContext(ctx,
		`SELECT username, attempt_count, window_start FROM login_attempts WHERE username = ?`,
		username,
	).Scan(&a.Username, &a.AttemptCount, &a.WindowStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get login attempts: %w", err)
	}
	return &a, nil
}
