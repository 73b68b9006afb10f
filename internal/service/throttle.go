package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorhub/internal/repository"
)

// LoginThrottle limits failed logins per submitted username within a lockout window
type LoginThrottle struct {
	attempts    AttemptStore
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

// NewLoginThrottle creates a throttle that locks a username after maxAttempts
// failures until lockout has passed since the most recent failure
func NewLoginThrottle(attempts AttemptStore, maxAttempts int, lockout time.Duration) *LoginThrottle {
	return &LoginThrottle{
		attempts:    attempts,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// CheckAttempts returns ErrRateLimited while the username is locked out
func (t *LoginThrottle) CheckAttempts(ctx context.Context, username string) error {
	attempt, err := t.attempts.Get(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check login attempts: %w", err)
	}

	if attempt.InWindow(t.now(), t.lockout) && attempt.AttemptCount >= t.maxAttempts {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure counts one failed login for username
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) error {
	_, err := t.attempts.RecordFailure(ctx, username, t.now(), t.lockout)
	return err
}

// ClearAttempts resets the counter after a successful login
func (t *LoginThrottle) ClearAttempts(ctx context.Context, username string) error {
	return t.attempts.Clear(ctx, username)
}
