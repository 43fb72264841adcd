package enums

import "fmt"

// UserRole is the system role carried on the user record and in access tokens.
type UserRole string

const (
	UserRoleSuperAdmin UserRole = "super_admin"
	UserRoleAdmin      UserRole = "admin"
	UserRoleStaff      UserRole = "staff"
)

var validUserRoles = []UserRole{UserRoleSuperAdmin, UserRoleAdmin, UserRoleStaff}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role may run administrative actions such as assignment and return-by overrides.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

// ParseUserRole converts raw strings into UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
