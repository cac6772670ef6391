package authclient

import "strings"

// UserRole is the closed set of roles the platform knows about. The
// integer values mirror the wire encoding and must not be reordered.
type UserRole int

const (
	// RoleDonor is the least privileged role (donors/members).
	RoleDonor UserRole = 0
	// RoleAdmin administers the platform.
	RoleAdmin UserRole = 1
	// RoleStaff operates donation facilities.
	RoleStaff UserRole = 2
)

// ParseRole maps a server supplied role string onto the closed enum.
// Unknown or empty strings map to RoleDonor: an unrecognized role must
// never grant privilege.
func ParseRole(raw string) UserRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin
	case "staff":
		return RoleStaff
	case "member", "user", "donor":
		return RoleDonor
	default:
		return RoleDonor
	}
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleDonor, RoleAdmin, RoleStaff:
		return true
	default:
		return false
	}
}

// IsPrivileged reports whether the role is exempt from the email
// verification gate. Staff and Admin are categorically exempt.
func (r UserRole) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleStaff
}

// HomeRoute returns the dashboard a member of this role always has
// access to. Unrecognized roles land on the public home page.
func (r UserRole) HomeRoute() string {
	switch r {
	case RoleDonor:
		return "/dashboard"
	case RoleStaff:
		return "/staff"
	case RoleAdmin:
		return "/admin"
	default:
		return "/"
	}
}

func (r UserRole) String() string {
	switch r {
	case RoleDonor:
		return "donor"
	case RoleAdmin:
		return "admin"
	case RoleStaff:
		return "staff"
	default:
		return "unknown"
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{RoleDonor, RoleAdmin, RoleStaff}
}
