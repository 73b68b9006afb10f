package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid email", email: "test@example.com"},
		{name: "valid email with subdomain", email: "user@mail.example.com"},
		{name: "valid email with plus", email: "user+tag@example.com"},
		{name: "missing @", email: "testexample.com", wantErr: true},
		{name: "missing domain", email: "test@", wantErr: true},
		{name: "missing local part", email: "@example.com", wantErr: true},
		{name: "empty string", email: "", wantErr: true},
		{name: "spaces in email", email: "test @example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "alice"},
		{input: "j.doe-2"},
		{input: "ab", wantErr: true},
		{input: "", wantErr: true},
		{input: "has space", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateUsername(%q) = %v", tt.input, err)
		})
	}
}

func TestIsStrongPassword(t *testing.T) {
	assert.False(t, IsStrongPassword("short"))
	assert.False(t, IsStrongPassword("1234567"))
	assert.True(t, IsStrongPassword("12345678"))
	assert.True(t, IsStrongPassword("LongEnough1"))
}

func TestValidatePasswordMaxLength(t *testing.T) {
	assert.NoError(t, ValidatePasswordMaxLength("password", strings.Repeat("a", MaxPasswordLength)))

	err := ValidatePasswordMaxLength("password", strings.Repeat("a", MaxPasswordLength+1))
	var ve ValidationError
	if assert.True(t, errors.As(err, &ve)) {
		assert.Equal(t, "password", ve.Field)
		assert.Contains(t, ve.Message, "72")
	}
}

func TestValidationErrorFields(t *testing.T) {
	err := ValidateConfirmation("LongEnough1", "LongEnough2")

	var ve ValidationError
	if assert.True(t, errors.As(err, &ve)) {
		assert.Equal(t, "confirm_password", ve.Field)
	}
	assert.NoError(t, ValidateConfirmation("same", "same"))
	assert.Error(t, Required("token", "  "))
}
