package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Janitor periodically purges expired sessions, spent reset tokens and
// stale login counters. Expiry is always enforced on read; this only keeps
// the tables small.
type Janitor struct {
	sessions SessionStore
	tokens   ResetTokenStore
	attempts AttemptStore
	timeout  time.Duration
	lockout  time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewJanitor creates a janitor that runs every interval
func NewJanitor(sessions SessionStore, tokens ResetTokenStore, attempts AttemptStore, sessionTimeout, lockout, interval time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		sessions: sessions,
		tokens:   tokens,
		attempts: attempts,
		timeout:  sessionTimeout,
		lockout:  lockout,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps until ctx is cancelled
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep performs one cleanup pass
func (j *Janitor) Sweep(ctx context.Context) {
	now := j.now()

	if n, err := j.sessions.DeleteIdleSince(ctx, now.Add(-j.timeout)); err != nil {
		j.logger.Warn("failed to purge expired sessions", zap.Error(err))
	} else if n > 0 {
		j.logger.Info("purged expired sessions", zap.Int64("count", n))
	}

	if n, err := j.tokens.DeleteExpired(ctx, now); err != nil {
		j.logger.Warn("failed to purge expired reset tokens", zap.Error(err))
	} else if n > 0 {
		j.logger.Info("purged expired reset tokens", zap.Int64("count", n))
	}

	if n, err := j.attempts.DeleteStale(ctx, now.Add(-j.lockout)); err != nil {
		j.logger.Warn("failed to purge stale login attempts", zap.Error(err))
	} else if n > 0 {
		j.logger.Debug("purged stale login attempts", zap.Int64("count", n))
	}
}
