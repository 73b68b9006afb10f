package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tutorhub/internal/activity"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"
	"tutorhub/internal/security"
	"tutorhub/internal/validation"

	"go.uber.org/zap"
)

const resetTokenBytes = 32

// ResetNotifier delivers a reset token to the account owner
type ResetNotifier interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string, expiresAt time.Time) error
}

// PasswordResetService issues and redeems single-use password reset tokens
type PasswordResetService struct {
	users    UserStore
	tokens   ResetTokenStore
	sessions SessionStore
	notifier ResetNotifier
	ttl      time.Duration
	activity *activity.Recorder
	logger   *zap.Logger
	now      func() time.Time
	pending  sync.WaitGroup
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(users UserStore, tokens ResetTokenStore, sessions SessionStore, notifier ResetNotifier, ttl time.Duration, recorder *activity.Recorder, logger *zap.Logger) *PasswordResetService {
	return &PasswordResetService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		notifier: notifier,
		ttl:      ttl,
		activity: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// RequestReset issues a fresh token for an active account and sends it by email.
// The outcome is identical whether or not the address belongs to an account.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validation.Required("email", email); err != nil {
		return err
	}

	user, err := s.users.GetActiveByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	resetToken := models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.tokens.Replace(ctx, resetToken); err != nil {
		return err
	}
	s.activity.Record(ctx, user.ID, activity.ActionPasswordResetRequest, "password reset requested")

	if s.notifier != nil {
		sendCtx := context.WithoutCancel(ctx)
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			if err := s.notifier.SendPasswordResetEmail(sendCtx, user.Email, user.Username, token, resetToken.ExpiresAt); err != nil {
				s.logger.Error("failed to send password reset email", zap.Int64("user_id", user.ID), zap.Error(err))
			}
		}()
	}
	return nil
}

// Wait blocks until every reset email dispatched so far has been attempted
func (s *PasswordResetService) Wait() {
	s.pending.Wait()
}

// ValidateToken reports whether token can currently be redeemed
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	t, err := s.tokens.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return t.IsRedeemable(s.now()), nil
}

// ResetPassword redeems token and sets a new password. Open sessions of the
// account are closed.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}

	t, err := s.tokens.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return err
	}

	now := s.now()
	if !t.IsRedeemable(now) {
		return ErrInvalidOrExpiredToken
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

	if err := s.tokens.Redeem(ctx, t, hash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if _, err := s.sessions.DeleteForUser(ctx, t.UserID); err != nil {
		s.logger.Warn("failed to close sessions after password reset", zap.Int64("user_id", t.UserID), zap.Error(err))
	}
	s.activity.Record(ctx, t.UserID, activity.ActionPasswordReset, "password reset with token")
	return nil
}

// generateResetToken creates a random hex-encoded token
func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
