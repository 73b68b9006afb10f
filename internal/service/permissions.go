package service

import (
	"fmt"
	"slices"

	"tutorhub/internal/models"

	"github.com/BurntSushi/toml"
)

// Permissions maps each role to the capability names it grants
type Permissions map[models.Role][]string

// DefaultPermissions returns the built-in role table
func DefaultPermissions() Permissions {
	return Permissions{
		models.RoleAdmin: {
			"manage_users", "manage_programs", "manage_courses", "manage_enrollments",
			"manage_payments", "manage_schedule", "manage_meetings", "view_reports",
		},
		models.RoleTutor: {
			"view_programs", "manage_own_courses", "manage_schedule", "manage_assessments",
			"grade_submissions", "manage_meetings", "upload_files",
		},
		models.RoleStudent: {
			"view_programs", "enroll_courses", "make_payments", "view_schedule",
			"submit_assignments", "take_assessments", "join_meetings", "upload_files",
		},
	}
}

type permissionsFile struct {
	Roles map[string][]string `toml:"roles"`
}

// LoadPermissions reads a role table from a TOML file of the form
//
//	[roles]
//	admin = ["manage_users", ...]
//
// Roles missing from the file keep their built-in permissions.
func LoadPermissions(path string) (Permissions, error) {
	var file permissionsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to read permissions file: %w", err)
	}

	perms := DefaultPermissions()
	for name, granted := range file.Roles {
		role, err := models.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("permissions file %s: %w", path, err)
		}
		perms[role] = granted
	}
	return perms, nil
}

// PermissionGate answers role and capability questions for an authenticated session
type PermissionGate struct {
	perms Permissions
}

// NewPermissionGate creates a gate over the given role table
func NewPermissionGate(perms Permissions) *PermissionGate {
	if perms == nil {
		perms = DefaultPermissions()
	}
	return &PermissionGate{perms: perms}
}

// Permissions returns the capabilities of role. Unknown roles get none.
func (g *PermissionGate) Permissions(role models.Role) []string {
	return slices.Clone(g.perms[role])
}

// Can reports whether role grants permission
func (g *PermissionGate) Can(role models.Role, permission string) bool {
	return slices.Contains(g.perms[role], permission)
}

// RequireRole returns ErrForbidden unless role is one of allowed
func (g *PermissionGate) RequireRole(role models.Role, allowed ...models.Role) error {
	if slices.Contains(allowed, role) {
		return nil
	}
	return ErrForbidden
}
