package permission

import (
	"errors"
	"strings"
)

// Role is a user's authorization level.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ErrUnknownRole is returned by [ParseRole].
var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts a case-insensitive role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r.level() > 0
}

func (r Role) level() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// IsAtLeast reports whether r ranks at or above other.
func (r Role) IsAtLeast(other Role) bool {
	return r.Valid() && r.level() >= other.level()
}

// IsAssignable reports whether new accounts may be created with r.
func (r Role) IsAssignable() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsChangeable reports whether accounts holding r may have their role or
// activation changed.
func (r Role) IsChangeable() bool {
	return r == RoleUser || r == RoleAdmin
}

// CanManageRole reports whether a subject with role subject may act on
// accounts that hold target. Only strictly lower roles are manageable.
func CanManageRole(subject, target Role) bool {
	switch subject {
	case RoleSuperAdmin:
		return target == RoleAdmin || target == RoleUser
	case RoleAdmin:
		return target == RoleUser
	default:
		return false
	}
}

// CanManageSubordinate is [CanManageRole] applied to a concrete target account.
func CanManageSubordinate(subject, targetUserRole Role) bool {
	return CanManageRole(subject, targetUserRole)
}

func (r Role) String() string {
	return string(r)
}
