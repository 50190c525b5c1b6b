package model

import "time"

// Seeded role names.  These three must exist before any user can be created;
// the seeder verifies them at startup.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleUser    = "USER"
)

// Role represents a row in the `roles` table.  Names are globally unique and
// normalized to uppercase on creation.
type Role struct {
	ID          uint64    // roles.id
	Name        string    // roles.name
	Description string    // roles.description
	CreatedAt   time.Time // roles.created_at
}

// RoleResponse is the public projection of a role.
type RoleResponse struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRoleResponse builds the public projection from a role record.
func NewRoleResponse(r Role) RoleResponse {
	return RoleResponse{ID: r.ID, Name: r.Name, Description: r.Description, CreatedAt: r.CreatedAt}
}
