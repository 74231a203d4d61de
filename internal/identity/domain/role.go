package domain

import "time"

// Role names. Every user has exactly one assignment.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// RoleScopes maps each role to the scopes its access tokens carry.
var RoleScopes = map[string][]string{
	RoleAdmin:  {"profile:read", "profile:write", "admin:read", "admin:write"},
	RoleClient: {"profile:read", "profile:write"},
}

// ValidRole reports whether name is a known role.
func ValidRole(name string) bool {
	_, ok := RoleScopes[name]
	return ok
}

// RoleAssignment is a user's single role row.
type RoleAssignment struct {
	UserID    string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
