package domain

import "strings"

// Role enumerates backoffice account roles.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleMarketing Role = "marketing"
	RoleAnalyst   Role = "analyst"
)

// Roles lists every recognized role.
var Roles = []Role{RoleOwner, RoleAdmin, RoleMarketing, RoleAnalyst}

// ParseRole resolves a raw role name. Unknown names are rejected.
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, role := range Roles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if role == r {
			return true
		}
	}
	return false
}
