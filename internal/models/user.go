package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	// RoleSuperAdmin holds system administrator privilege.
	RoleSuperAdmin UserRole = "SUPERADMIN"
	// RoleAdmin administers a club; it carries no system privilege.
	RoleAdmin  UserRole = "ADMIN"
	RoleMember UserRole = "MEMBER"
)

// IsSystemAdmin reports whether the role bypasses room availability and ownership checks.
func (r UserRole) IsSystemAdmin() bool {
	return r == RoleSuperAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Actor is the authenticated user a request acts on behalf of.
type Actor struct {
	UserID    string
	Role      UserRole
	FullName  string
	IPAddress string
	UserAgent string
}

// IsSystemAdmin reports whether the actor holds system administrator privilege.
func (a Actor) IsSystemAdmin() bool {
	return a.Role.IsSystemAdmin()
}
