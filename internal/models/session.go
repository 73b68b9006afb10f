package models

import "time"

// Session is the server-side record bound to an opaque session id
type Session struct {
	ID        string
	UserID    int64
	Username  string
	Email     string
	Role      Role
	LoginTime time.Time
	CreatedAt time.Time
}

// ExpiresAt returns the instant the session stops being valid for the given timeout
func (s *Session) ExpiresAt(timeout time.Duration) time.Time {
	return s.LoginTime.Add(timeout)
}

// IsExpired checks whether more than timeout has passed since LoginTime
func (s *Session) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LoginTime) > timeout
}

// Remaining returns the time left before expiry, never negative
func (s *Session) Remaining(now time.Time, timeout time.Duration) time.Duration {
	left := s.ExpiresAt(timeout).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// LoginAttempt counts failed logins for a raw username within a lockout window
type LoginAttempt struct {
	Username     string
	AttemptCount int
	WindowStart  time.Time
}

// InWindow reports whether the counter's window is still open at now
func (a *LoginAttempt) InWindow(now time.Time, lockout time.Duration) bool {
	return now.Sub(a.WindowStart) < lockout
}

// PasswordResetToken represents a token for password reset
type PasswordResetToken struct {
	UserID    int64
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsExpired checks if the reset token has expired
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsRedeemable reports whether the token is unused and unexpired
func (t *PasswordResetToken) IsRedeemable(now time.Time) bool {
	return t.UsedAt == nil && !t.IsExpired(now)
}

// Activity is one security-relevant event routed to the activity sink
type Activity struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
