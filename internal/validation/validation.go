package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest password accepted anywhere a password is set
const MinPasswordLength = 8

// MaxPasswordLength is the bcrypt input limit in bytes
const MaxPasswordLength = 72

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]{3,64}$`)
)

// ValidationError represents a field-level validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Required fails when value is blank
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateUsername checks length and allowed characters
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username must be 3-64 letters, digits, dots, dashes or underscores"}
	}
	return nil
}

// IsStrongPassword reports whether password meets the minimum length
func IsStrongPassword(password string) bool {
	return len(password) >= MinPasswordLength
}

// ValidatePasswordMaxLength rejects passwords bcrypt cannot hash
func ValidatePasswordMaxLength(field, password string) error {
	if len(password) > MaxPasswordLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength)}
	}
	return nil
}

// ValidateConfirmation checks that the confirmation field repeats the new password
func ValidateConfirmation(password, confirm string) error {
	if password != confirm {
		return ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	}
	return nil
}
