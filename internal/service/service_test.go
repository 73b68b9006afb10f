package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tutorhub/internal/activity"
	"tutorhub/internal/database"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"
	"tutorhub/internal/security"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testTimeout     = time.Hour
	testMaxAttempts = 5
	testLockout     = 15 * time.Minute
	testResetTTL    = time.Hour
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentEmail struct {
	to        string
	token     string
	expiresAt time.Time
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	ctx  []context.Context
	err  error
}

func (n *captureNotifier) SendPasswordResetEmail(ctx context.Context, toEmail, _ string, token string, expiresAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{to: toEmail, token: token, expiresAt: expiresAt})
	n.ctx = append(n.ctx, ctx)
	return n.err
}

// sentEmails waits for in-flight deliveries and returns what was sent
func (f *fixture) sentEmails() []sentEmail {
	f.resets.Wait()
	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	return append([]sentEmail(nil), f.notifier.sent...)
}

func (f *fixture) lastToken(t *testing.T) string {
	t.Helper()
	sent := f.sentEmails()
	require.NotEmpty(t, sent, "no reset email sent")
	return sent[len(sent)-1].token
}

type fixture struct {
	clock    *fakeClock
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	attempts *repository.AttemptRepository
	tokens   *repository.ResetTokenRepository
	activity *repository.ActivityRepository
	notifier *captureNotifier

	throttle *LoginThrottle
	manager  *SessionManager
	resets   *PasswordResetService
	accounts *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RunMigrations())

	logger := zaptest.NewLogger(t)
	f := &fixture{
		clock:    &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		users:    repository.NewUserRepository(db),
		sessions: repository.NewSessionRepository(db),
		attempts: repository.NewAttemptRepository(db),
		tokens:   repository.NewResetTokenRepository(db),
		activity: repository.NewActivityRepository(db),
		notifier: &captureNotifier{},
	}
	recorder := activity.NewRecorder(logger, f.activity)

	f.throttle = NewLoginThrottle(f.attempts, testMaxAttempts, testLockout)
	f.throttle.now = f.clock.Now
	f.manager = NewSessionManager(f.users, f.sessions, f.throttle, testTimeout, recorder, logger)
	f.manager.now = f.clock.Now
	f.resets = NewPasswordResetService(f.users, f.tokens, f.sessions, f.notifier, testResetTTL, recorder, logger)
	f.resets.now = f.clock.Now
	f.accounts = NewUserService(f.users, f.sessions, recorder, logger)
	return f
}

func (f *fixture) createUser(t *testing.T, username, password string, role models.Role) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	user, err := f.users.Create(context.Background(), models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Status:       models.StatusActive,
	})
	require.NoError(t, err)
	return user
}
