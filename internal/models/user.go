package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the coarse-grained identity classification that drives permissions
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
)

// ParseRole converts a stored or client-supplied string into a Role
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleTutor, RoleStudent:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// UserStatus is the account lifecycle state. Only active users may hold sessions.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

// ParseUserStatus converts a string into a UserStatus
func ParseUserStatus(s string) (UserStatus, error) {
	switch st := UserStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusInactive, StatusSuspended:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// User represents an account in the credential store
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive reports whether the account may log in
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}
