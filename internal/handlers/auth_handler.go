package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"tutorhub/internal/models"
	"tutorhub/internal/security"
	"tutorhub/internal/service"
	"tutorhub/internal/validation"
)

// AuthHandler handles the authentication API
type AuthHandler struct {
	sessions      *service.SessionManager
	resets        *service.PasswordResetService
	accounts      *service.UserService
	gate          *service.PermissionGate
	signer        *security.SessionTokenSigner
	csrf          *security.CSRFGenerator
	respond       *Responder
	secureCookies bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *service.SessionManager, resets *service.PasswordResetService, accounts *service.UserService, gate *service.PermissionGate, signer *security.SessionTokenSigner, csrf *security.CSRFGenerator, respond *Responder, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		sessions:      sessions,
		resets:        resets,
		accounts:      accounts,
		gate:          gate,
		signer:        signer,
		csrf:          csrf,
		respond:       respond,
		secureCookies: secureCookies,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type userResponse struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Role     models.Role       `json:"role"`
	Status   models.UserStatus `json:"status"`
}

type loginResponse struct {
	userResponse
	Token     string `json:"token"`
	CSRFToken string `json:"csrf_token"`
	ExpiresAt int64  `json:"expires_at"`
}

type sessionResponse struct {
	userResponse
	SessionTimeRemaining int64 `json:"session_time_remaining"`
}

type permissionsResponse struct {
	Role        models.Role `json:"role"`
	Permissions []string    `json:"permissions"`
}

type extendResponse struct {
	NewExpiry int64 `json:"new_expiry"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, Status: u.Status}
}

// Login verifies credentials, opens a session and sets the session cookie.
// The signed token and CSRF token are also returned for API clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.BadRequest(w, ErrInvalidRequest)
		return
	}

	session, user, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	token, err := h.signer.Sign(session.ID, user.ID, session.LoginTime)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	csrfToken, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	expires := session.ExpiresAt(h.sessions.Timeout())
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, token, expires, h.secureCookies))

	h.respond.Success(w, http.StatusOK, loginResponse{
		userResponse: newUserResponse(user),
		Token:        token,
		CSRFToken:    csrfToken,
		ExpiresAt:    expires.Unix(),
	})
}

// Logout destroys the current session if there is one and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, _ := sessionToken(r); token != "" {
		if sessionID, err := h.signer.SessionID(token); err == nil {
			if err := h.sessions.Logout(r.Context(), sessionID); err != nil {
				h.respond.Error(w, r, err)
				return
			}
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName, h.secureCookies))
	h.respond.Message(w, "Logged out successfully")
}

// CheckSession reports the current user and the seconds left in the session
func (h *AuthHandler) CheckSession(w http.ResponseWriter, r *http.Request) {
	auth := GetAuthFromContext(r.Context())

	h.respond.Success(w, http.StatusOK, sessionResponse{
		userResponse: userResponse{
			ID:       auth.UserID,
			Username: auth.Username,
			Email:    auth.Email,
			Role:     auth.Role,
			Status:   auth.Status,
		},
		SessionTimeRemaining: int64(auth.Remaining / time.Second),
	})
}

// ChangePassword replaces the password of the signed-in user
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	auth := GetAuthFromContext(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.BadRequest(w, ErrInvalidRequest)
		return
	}
	if err := validation.Required("current_password", req.CurrentPassword); err != nil {
		h.respond.Error(w, r, err)
		return
	}
	if err := validation.ValidateConfirmation(req.NewPassword, req.ConfirmPassword); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), auth.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.Message(w, "Password changed successfully")
}

// RequestPasswordReset always acknowledges, whether or not the email is known
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.BadRequest(w, ErrInvalidRequest)
		return
	}

	if err := h.resets.RequestReset(r.Context(), req.Email); err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.Message(w, MsgResetRequested)
}

// ValidateResetToken tells the reset page whether its token is still usable
func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.resets.ValidateToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.Success(w, http.StatusOK, map[string]bool{"valid": valid})
}

// ResetPassword redeems a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.BadRequest(w, ErrInvalidRequest)
		return
	}
	if err := validation.ValidateConfirmation(req.NewPassword, req.ConfirmPassword); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	if err := h.resets.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.Message(w, "Password has been reset, please log in")
}

// GetPermissions lists the capabilities of the session's role
func (h *AuthHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	auth := GetAuthFromContext(r.Context())
	if auth == nil {
		h.respond.Error(w, r, service.ErrNotAuthenticated)
		return
	}

	h.respond.Success(w, http.StatusOK, permissionsResponse{
		Role:        auth.Role,
		Permissions: h.gate.Permissions(auth.Role),
	})
}

// ExtendSession restarts the session clock. Cookie sessions get a refreshed cookie.
func (h *AuthHandler) ExtendSession(w http.ResponseWriter, r *http.Request) {
	auth := GetAuthFromContext(r.Context())

	expiry, err := h.sessions.ExtendSession(r.Context(), auth.SessionID)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	if auth.viaCookie {
		token, err := h.signer.Sign(auth.SessionID, auth.UserID, expiry.Add(-h.sessions.Timeout()))
		if err != nil {
			h.respond.Error(w, r, err)
			return
		}
		http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, token, expiry, h.secureCookies))
	}

	h.respond.Success(w, http.StatusOK, extendResponse{NewExpiry: expiry.Unix()})
}
