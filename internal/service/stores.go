package service

import (
	"context"
	"time"

	"tutorhub/internal/models"
)

// UserStore is the credential store the services read and update
type UserStore interface {
	Create(ctx context.Context, user models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetActiveByLogin(ctx context.Context, login string) (*models.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error
}

// SessionStore persists server-side sessions
type SessionStore interface {
	Create(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Touch(ctx context.Context, id string, loginTime time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteForUser(ctx context.Context, userID int64) (int64, error)
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// AttemptStore persists failed-login counters
type AttemptStore interface {
	Get(ctx context.Context, username string) (*models.LoginAttempt, error)
	RecordFailure(ctx context.Context, username string, now time.Time, window time.Duration) (*models.LoginAttempt, error)
	Clear(ctx context.Context, username string) error
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// ResetTokenStore persists password reset tokens
type ResetTokenStore interface {
	Replace(ctx context.Context, t models.PasswordResetToken) error
	Get(ctx context.Context, token string) (*models.PasswordResetToken, error)
	Redeem(ctx context.Context, t *models.PasswordResetToken, passwordHash string, now time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
