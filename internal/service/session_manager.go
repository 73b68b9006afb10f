package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tutorhub/internal/activity"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"
	"tutorhub/internal/security"
	"tutorhub/internal/validation"

	"go.uber.org/zap"
)

// SessionInfo is the result of a successful session check
type SessionInfo struct {
	Session   *models.Session
	User      *models.User
	Remaining time.Duration
}

// SessionManager handles login, session validation, extension and logout
type SessionManager struct {
	users    UserStore
	sessions SessionStore
	throttle *LoginThrottle
	timeout  time.Duration
	activity *activity.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionManager creates a new session manager. Sessions expire once
// timeout has elapsed since their login time.
func NewSessionManager(users UserStore, sessions SessionStore, throttle *LoginThrottle, timeout time.Duration, recorder *activity.Recorder, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		users:    users,
		sessions: sessions,
		throttle: throttle,
		timeout:  timeout,
		activity: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Timeout returns the configured session lifetime
func (m *SessionManager) Timeout() time.Duration {
	return m.timeout
}

// Login verifies credentials for an active user identified by username or email
// and opens a new session
func (m *SessionManager) Login(ctx context.Context, login, password string) (*models.Session, *models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, nil, validation.ValidationError{Field: "username", Message: "username and password are required"}
	}

	if err := m.throttle.CheckAttempts(ctx, login); err != nil {
		if errors.Is(err, ErrRateLimited) {
			m.activity.Record(ctx, 0, activity.ActionLoginFailed, fmt.Sprintf("login for %q refused: locked out", login))
		}
		return nil, nil, err
	}

	user, err := m.users.GetActiveByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		security.BurnPasswordCheck(password)
		m.loginFailed(ctx, login, 0)
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		m.loginFailed(ctx, login, user.ID)
		return nil, nil, ErrInvalidCredentials
	}

	if err := m.throttle.ClearAttempts(ctx, login); err != nil {
		m.logger.Warn("failed to clear login attempts", zap.String("login", login), zap.Error(err))
	}

	now := m.now().UTC()
	if err := m.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	session := models.Session{
		ID:        security.GenerateSessionID(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		LoginTime: now,
		CreatedAt: now,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.activity.Record(ctx, user.ID, activity.ActionLogin, "logged in")
	return &session, user, nil
}

func (m *SessionManager) loginFailed(ctx context.Context, login string, userID int64) {
	if err := m.throttle.RecordFailure(ctx, login); err != nil {
		m.logger.Error("failed to record login failure", zap.String("login", login), zap.Error(err))
	}
	m.activity.Record(ctx, userID, activity.ActionLoginFailed, fmt.Sprintf("failed login for %q", login))
}

// CheckSession validates a session id. A session that has timed out, or whose
// user is no longer active, is destroyed and reported as ErrSessionInvalid.
func (m *SessionManager) CheckSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if sessionID == "" {
		return nil, ErrNotAuthenticated
	}

	session, err := m.sessions.Get(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := m.now()
	if session.IsExpired(now, m.timeout) {
		m.destroy(ctx, sessionID)
		return nil, ErrSessionInvalid
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		m.destroy(ctx, sessionID)
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if !user.IsActive() {
		m.destroy(ctx, sessionID)
		return nil, ErrSessionInvalid
	}

	return &SessionInfo{
		Session:   session,
		User:      user,
		Remaining: session.Remaining(now, m.timeout),
	}, nil
}

// ExtendSession restarts the session clock and returns the new expiry
func (m *SessionManager) ExtendSession(ctx context.Context, sessionID string) (time.Time, error) {
	if _, err := m.CheckSession(ctx, sessionID); err != nil {
		return time.Time{}, err
	}

	now := m.now().UTC()
	if err := m.sessions.Touch(ctx, sessionID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return time.Time{}, ErrSessionInvalid
		}
		return time.Time{}, fmt.Errorf("failed to extend session: %w", err)
	}
	return now.Add(m.timeout), nil
}

// Logout destroys the session. Logging out an unknown or empty id succeeds.
func (m *SessionManager) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := m.sessions.Get(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.activity.Record(ctx, session.UserID, activity.ActionLogout, "logged out")
	return nil
}

func (m *SessionManager) destroy(ctx context.Context, sessionID string) {
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		m.logger.Warn("failed to destroy session", zap.String("session_id", sessionID), zap.Error(err))
	}
}
