package models

import "time"

// User roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string     `json:"id" example:"b7f5a0ce-1f3b-4c6e-9a0f-0f3f2a1d9c44"` // User ID
	Email        string     `json:"email" example:"user@example.com"`                  // User email
	Name         string     `json:"name" example:"John Doe"`                           // Display name
	Role         string     `json:"role" example:"member"`                             // member or admin
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ResolvedUser is the narrow identity view the token services authorize against.
type ResolvedUser struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"is_admin"`
}
