package handlers

const (
	SessionCookieName = "tutorhub_session"
	CSRFHeaderName    = "X-CSRF-Token"

	ErrInvalidRequest      = "Invalid request body"
	ErrInternalServerError = "Internal server error"
	MsgResetRequested      = "If the email is registered, a reset link has been sent"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, slow down"
	ErrNotFound            = "Not found"
	ErrUserNotFound        = "User not found"
)
