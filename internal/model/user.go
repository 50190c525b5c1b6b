package model

import "time"

// User mirrors a row of the `users` table.  The password hash never leaves
// the service layer; handlers expose UserResponse projections instead.  The
// role set is loaded through the user_roles join table rather than held as a
// back-reference on either side.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address, stored as given (case-sensitive).
//	PasswordHash – bcrypt hashed password.
//	FirstName    – given name.
//	LastName     – family name.
//	Enabled      – whether the account may authenticate.
//	Roles        – names of the roles currently granted (always >= 1).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Enabled      bool      // users.enabled
	Roles        []string  // joined from user_roles -> roles.name
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// HasRole reports whether the user currently holds the named role.  The
// comparison is case-sensitive; role names are normalized to uppercase when
// roles are created.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// UserResponse is the public projection of a user returned by the API.  It
// deliberately omits the password hash.
type UserResponse struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Enabled   bool      `json:"enabled"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse builds the public projection from a full user record.
func NewUserResponse(u User) UserResponse {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Enabled:   u.Enabled,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}
