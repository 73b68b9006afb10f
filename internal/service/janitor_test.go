package service

import (
	"context"
	"testing"
	"time"

	"tutorhub/internal/models"
	"tutorhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestJanitorSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "alice", "Secret123", models.RoleStudent)
	f.createUser(t, "bob", "Secret123", models.RoleStudent)

	stale, _, err := f.manager.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)
	_, _, err = f.manager.Login(ctx, "mallory", "guess-one")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.NoError(t, f.resets.RequestReset(ctx, "alice@example.com"))
	token := f.lastToken(t)

	f.clock.Advance(2 * time.Hour)
	fresh, _, err := f.manager.Login(ctx, "bob", "Secret123")
	require.NoError(t, err)

	janitor := NewJanitor(f.sessions, f.tokens, f.attempts, testTimeout, testLockout, time.Minute, zaptest.NewLogger(t))
	janitor.now = f.clock.Now
	janitor.Sweep(ctx)

	_, err = f.sessions.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.sessions.Get(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = f.tokens.Get(ctx, token)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.attempts.Get(ctx, "mallory")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestJanitorRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	janitor := NewJanitor(f.sessions, f.tokens, f.attempts, testTimeout, testLockout, time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		janitor.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
