package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tutorhub/internal/activity"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"
	"tutorhub/internal/security"
	"tutorhub/internal/validation"

	"go.uber.org/zap"
)

// NewUser holds the fields an administrator supplies when creating an account
type NewUser struct {
	Username string
	Email    string
	Password string
	Role     string
}

// UserService handles account administration and password changes
type UserService struct {
	users    UserStore
	sessions SessionStore
	activity *activity.Recorder
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, sessions SessionStore, recorder *activity.Recorder, logger *zap.Logger) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		activity: recorder,
		logger:   logger,
	}
}

// ChangePassword replaces the password of userID after verifying the current one.
// The caller's session is left untouched.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotAuthenticated
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !security.CheckPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if !validation.IsStrongPassword(newPassword) {
		return ErrWeakPassword
	}
	if err := validation.ValidatePasswordMaxLength("new_password", newPassword); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.activity.Record(ctx, userID, activity.ActionPasswordChange, "password changed")
	return nil
}

// CreateUser validates and stores a new active account
func (s *UserService) CreateUser(ctx context.Context, actorID int64, input NewUser) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if !validation.IsStrongPassword(input.Password) {
		return nil, ErrWeakPassword
	}
	if err := validation.ValidatePasswordMaxLength("password", input.Password); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(input.Role)
	if err != nil {
		return nil, validation.ValidationError{Field: "role", Message: "role must be admin, tutor or student"}
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, validation.ValidationError{Field: "username", Message: "username already taken"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, validation.ValidationError{Field: "email", Message: "email already registered"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       models.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.activity.Record(ctx, actorID, activity.ActionUserCreated, fmt.Sprintf("created %s account %q", role, username))
	return user, nil
}

// SetStatus changes the lifecycle status of an account. Leaving the active
// state closes every session the user holds.
func (s *UserService) SetStatus(ctx context.Context, actorID, userID int64, status models.UserStatus) error {
	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		return err
	}

	if status != models.StatusActive {
		closed, err := s.sessions.DeleteForUser(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to close sessions", zap.Int64("user_id", userID), zap.Error(err))
		} else if closed > 0 {
			s.logger.Info("closed sessions of deactivated user", zap.Int64("user_id", userID), zap.Int64("sessions", closed))
		}
	}

	s.activity.Record(ctx, actorID, activity.ActionStatusChange, fmt.Sprintf("user %d set to %s", userID, status))
	return nil
}

// ListUsers returns every account
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}
