package domain

import "strings"

// Role enumerates the account categories that gate dashboards.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
	RoleAlumni  Role = "alumni"
)

// DefaultRole is used when no role can be derived.
const DefaultRole = RoleStudent

var roles = []Role{RoleStudent, RoleFaculty, RoleAdmin, RoleAlumni}

// Roles returns every known role in display order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// ParseRole normalizes a role name case-insensitively. The department API
// calls faculty members "teacher"; both spellings map to RoleFaculty.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, true
	case "faculty", "teacher":
		return RoleFaculty, true
	case "admin":
		return RoleAdmin, true
	case "alumni":
		return RoleAlumni, true
	}
	return "", false
}

// APIName is the spelling the department API expects on the wire.
func (r Role) APIName() string {
	if r == RoleFaculty {
		return "teacher"
	}
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin, RoleAlumni:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
