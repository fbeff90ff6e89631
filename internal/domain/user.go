package domain

import (
	"time"
)

// Roles assignable to users. The role name also acts as an implicit scope:
// a route guarded by scope "admin" admits any user whose role is "admin".
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// User represents a registered account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name,omitempty"`
	Role         string     `json:"role"`
	Permissions  []string   `json:"permissions"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasScope reports whether the user satisfies the required scope, either
// through an explicit permission grant or because the scope names their role.
func (u *User) HasScope(scope string) bool {
	if scope == u.Role {
		return true
	}
	for _, p := range u.Permissions {
		if p == scope {
			return true
		}
	}
	return false
}
