package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tutorhub/internal/models"
	"tutorhub/internal/repository"
	"tutorhub/internal/service"
	"tutorhub/internal/validation"

	"github.com/go-chi/chi/v5"
)

// AdminHandler handles account administration
type AdminHandler struct {
	accounts *service.UserService
	respond  *Responder
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(accounts *service.UserService, respond *Responder) *AdminHandler {
	return &AdminHandler{accounts: accounts, respond: respond}
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// ListUsers returns every account
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	h.respond.Success(w, http.StatusOK, users)
}

// CreateUser adds an active account
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	auth := GetAuthFromContext(r.Context())

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.BadRequest(w, ErrInvalidRequest)
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), auth.UserID, service.NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.Success(w, http.StatusCreated, user)
}

// SetStatus activates, deactivates or suspends an account
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	auth := GetAuthFromContext(r.Context())

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID < 1 {
		h.respond.Error(w, r, validation.ValidationError{Field: "id", Message: "invalid user id"})
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.BadRequest(w, ErrInvalidRequest)
		return
	}
	status, err := models.ParseUserStatus(req.Status)
	if err != nil {
		h.respond.Error(w, r, validation.ValidationError{Field: "status", Message: "status must be active, inactive or suspended"})
		return
	}
	if userID == auth.UserID && status != models.StatusActive {
		h.respond.Error(w, r, validation.ValidationError{Field: "status", Message: "you cannot deactivate your own account"})
		return
	}

	err = h.accounts.SetStatus(r.Context(), auth.UserID, userID, status)
	if errors.Is(err, repository.ErrNotFound) {
		h.respond.NotFound(w, ErrUserNotFound)
		return
	}
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.Message(w, "Status updated")
}
