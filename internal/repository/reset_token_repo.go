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

// ResetTokenRepository stores password reset tokens, at most one per user
type ResetTokenRepository struct {
	db *database.DB
}

// NewResetTokenRepository creates a new reset token repository
func NewResetTokenRepository(db *database.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Replace discards any previous token for the user and stores the new one
func (r *ResetTokenRepository) Replace(ctx context.Context, t models.PasswordResetToken) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = ?`, t.UserID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO password_reset_tokens (user_id, token, expires_at, used_at, created_at) VALUES (?, ?, ?, NULL, ?)`,
			t.UserID, t.Token, t.ExpiresAt.UTC(), t.CreatedAt.UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// Get retrieves a reset token
func (r *ResetTokenRepository) Get(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var (
		t      models.PasswordResetToken
		usedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, token, expires_at, used_at, created_at FROM password_reset_tokens WHERE token = ?`,
		token,
	).Scan(&t.UserID, &t.Token, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	if usedAt.Valid {
		at := usedAt.Time
		t.UsedAt = &at
	}
	return &t, nil
}

// Redeem marks the token used and stores the new password hash in one transaction.
// The used_at guard makes a concurrent second redemption fail with ErrNotFound.
func (r *ResetTokenRepository) Redeem(ctx context.Context, t *models.PasswordResetToken, passwordHash string, now time.Time) error {
	now = now.UTC()
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE password_reset_tokens SET used_at = ? WHERE token = ? AND used_at IS NULL`,
			now, t.Token)
		if err != nil {
			return fmt.Errorf("failed to mark token as used: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read token update: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
			passwordHash, now, t.UserID)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if affected, err = result.RowsAffected(); err == nil && affected == 0 {
			return ErrNotFound
		}
		return err
	})
}

// DeleteExpired removes tokens that expired before now
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return result.RowsAffected()
}
