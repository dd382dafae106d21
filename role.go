package gateAuth

import (
	"strconv"
	"strings"
)

// Role is the closed set of account roles. The numeric values are the codes
// sealed into access tokens and must never be renumbered.
type Role int

const (
	// RoleSuperAdmin has every permission.
	RoleSuperAdmin Role = 0
	// RoleAdmin can reach admin routes.
	RoleAdmin Role = 1
	// RolePublisher can create content.
	RolePublisher Role = 2
	// RoleUser is the default account role.
	RoleUser Role = 3
	// RoleNone marks a role claim that could not be opened or is unknown. It is
	// never authorized, not even for routes with no role requirement.
	RoleNone Role = -1
)

// String returns the canonical upper-case name.
func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	case RoleAdmin:
		return "ADMIN"
	case RolePublisher:
		return "PUBLISHER"
	case RoleUser:
		return "USER"
	default:
		return "NONE"
	}
}

// Valid reports whether r is one of the four assignable roles.
func (r Role) Valid() bool {
	return r >= RoleSuperAdmin && r <= RoleUser
}

// IsAdmin reports whether r may access admin-marked paths.
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// code is the plaintext sealed into the token role claim.
func (r Role) code() string {
	return strconv.Itoa(int(r))
}

// roleFromCode maps a decrypted role claim back to a Role. Anything other than
// a base-10 code of an assignable role yields RoleNone.
func roleFromCode(s string) Role {
	n, err := strconv.Atoi(s)
	if err != nil {
		return RoleNone
	}
	r := Role(n)
	if !r.Valid() {
		return RoleNone
	}
	return r
}

// ParseRole accepts a role name (case-insensitive) or its numeric code.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "SUPER_ADMIN":
		return RoleSuperAdmin, true
	case "ADMIN":
		return RoleAdmin, true
	case "PUBLISHER":
		return RolePublisher, true
	case "USER":
		return RoleUser, true
	}
	if r := roleFromCode(s); r != RoleNone {
		return r, true
	}
	return RoleNone, false
}
