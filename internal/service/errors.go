package service

import "errors"

// Error kinds returned by the authentication core. Handlers map them to
// status codes; anything else is an internal failure.
var (
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrRateLimited           = errors.New("too many failed login attempts, try again later")
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrSessionInvalid        = errors.New("session expired or invalid")
	ErrForbidden             = errors.New("insufficient permissions")
	ErrWeakPassword          = errors.New("password must be at least 8 characters")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
)
