package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tutorhub/internal/database"
	"tutorhub/internal/models"
)

// ActivityRepository persists security-relevant events
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// LogActivity appends an event. A zero userID is stored as NULL.
func (r *ActivityRepository) LogActivity(ctx context.Context, userID int64, action, message string) error {
	var uid sql.NullInt64
	if userID > 0 {
		uid = sql.NullInt64{Int64: userID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (user_id, action, message, created_at) VALUES (?, ?, ?, ?)`,
		uid, action, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

// ListForUser returns the most recent events for a user
func (r *ActivityRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, message, created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
