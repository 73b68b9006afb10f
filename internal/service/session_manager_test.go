package service

import (
	"context"
	"testing"
	"time"

	"tutorhub/internal/activity"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"
	"tutorhub/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createUser(t, "alice", "Secret123", models.RoleTutor)

		session, user, err := f.manager.Login(ctx, "alice", "Secret123")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)
		assert.Equal(t, alice.ID, session.UserID)
		assert.Equal(t, "alice", session.Username)
		assert.Equal(t, "alice@example.com", session.Email)
		assert.Equal(t, models.RoleTutor, session.Role)
		assert.True(t, session.LoginTime.Equal(f.clock.Now()))
		require.NotNil(t, user.LastLogin)

		stored, err := f.users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastLogin)
		assert.True(t, stored.LastLogin.Equal(f.clock.Now()))
	})

	t.Run("by email", func(t *testing.T) {
		f := newFixture(t)
		f.createUser(t, "alice", "Secret123", models.RoleStudent)

		_, user, err := f.manager.Login(ctx, "alice@example.com", "Secret123")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		f := newFixture(t)
		f.createUser(t, "alice", "Secret123", models.RoleStudent)

		_, _, err := f.manager.Login(ctx, "alice", "nope-nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, _, err = f.manager.Login(ctx, "mallory", "Secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user cannot log in", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createUser(t, "alice", "Secret123", models.RoleStudent)
		require.NoError(t, f.users.UpdateStatus(ctx, alice.ID, models.StatusSuspended))

		_, _, err := f.manager.Login(ctx, "alice", "Secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("blank credentials", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.manager.Login(ctx, "  ", "Secret123")
		var verr validation.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("records activity", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createUser(t, "alice", "Secret123", models.RoleStudent)

		_, _, err := f.manager.Login(ctx, "alice", "wrong-password")
		require.Error(t, err)
		_, _, err = f.manager.Login(ctx, "alice", "Secret123")
		require.NoError(t, err)

		events, err := f.activity.ListForUser(ctx, alice.ID, 10)
		require.NoError(t, err)
		require.Len(t, events, 2)
		actions := []string{events[0].Action, events[1].Action}
		assert.ElementsMatch(t, []string{activity.ActionLoginFailed, activity.ActionLogin}, actions)
	})
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "alice", "Secret123", models.RoleStudent)

	for i := 0; i < testMaxAttempts; i++ {
		_, _, err := f.manager.Login(ctx, "alice", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// locked even with the right password
	_, _, err := f.manager.Login(ctx, "alice", "Secret123")
	require.ErrorIs(t, err, ErrRateLimited)

	f.clock.Advance(testLockout - time.Second)
	_, _, err = f.manager.Login(ctx, "alice", "Secret123")
	require.ErrorIs(t, err, ErrRateLimited)

	f.clock.Advance(time.Second)
	_, _, err = f.manager.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	_, err = f.attempts.Get(ctx, "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSuccessfulLoginClearsCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "alice", "Secret123", models.RoleStudent)

	for i := 0; i < testMaxAttempts-1; i++ {
		_, _, err := f.manager.Login(ctx, "alice", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, _, err := f.manager.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	// a fresh budget of failures before lockout
	for i := 0; i < testMaxAttempts-1; i++ {
		_, _, err := f.manager.Login(ctx, "alice", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, _, err = f.manager.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)
}

func TestCheckSession(t *testing.T) {
	ctx := context.Background()

	t.Run("missing id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.CheckSession(ctx, "")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.CheckSession(ctx, "no-such-session")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("reports remaining time", func(t *testing.T) {
		f := newFixture(t)
		f.createUser(t, "alice", "Secret123", models.RoleAdmin)
		session, _, err := f.manager.Login(ctx, "alice", "Secret123")
		require.NoError(t, err)

		f.clock.Advance(10 * time.Minute)
		info, err := f.manager.CheckSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 50*time.Minute, info.Remaining)
		assert.Equal(t, "alice", info.User.Username)
		assert.Equal(t, models.RoleAdmin, info.Session.Role)
	})

	t.Run("timeout destroys session", func(t *testing.T) {
		f := newFixture(t)
		f.createUser(t, "alice", "Secret123", models.RoleStudent)
		session, _, err := f.manager.Login(ctx, "alice", "Secret123")
		require.NoError(t, err)

		f.clock.Advance(testTimeout)
		_, err = f.manager.CheckSession(ctx, session.ID)
		require.NoError(t, err, "a session is valid up to the timeout inclusive")

		f.clock.Advance(time.Second)
		_, err = f.manager.CheckSession(ctx, session.ID)
		require.ErrorIs(t, err, ErrSessionInvalid)

		_, err = f.sessions.Get(ctx, session.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)

		_, err = f.manager.CheckSession(ctx, session.ID)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("deactivated user", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createUser(t, "alice", "Secret123", models.RoleStudent)
		session, _, err := f.manager.Login(ctx, "alice", "Secret123")
		require.NoError(t, err)

		require.NoError(t, f.users.UpdateStatus(ctx, alice.ID, models.StatusInactive))
		_, err = f.manager.CheckSession(ctx, session.ID)
		require.ErrorIs(t, err, ErrSessionInvalid)

		_, err = f.sessions.Get(ctx, session.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestExtendSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "alice", "Secret123", models.RoleStudent)
	session, _, err := f.manager.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	f.clock.Advance(50 * time.Minute)
	expiry, err := f.manager.ExtendSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, expiry.Equal(f.clock.Now().Add(testTimeout)))

	f.clock.Advance(50 * time.Minute)
	info, err := f.manager.CheckSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, info.Remaining)

	f.clock.Advance(11 * time.Minute)
	_, err = f.manager.ExtendSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.createUser(t, "alice", "Secret123", models.RoleStudent)
	session, _, err := f.manager.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx, session.ID))
	_, err = f.manager.CheckSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	require.NoError(t, f.manager.Logout(ctx, session.ID))
	require.NoError(t, f.manager.Logout(ctx, ""))

	events, err := f.activity.ListForUser(ctx, alice.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, activity.ActionLogout, events[0].Action)
}
