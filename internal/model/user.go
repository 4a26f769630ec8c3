package model

import (
	"fmt"
	"time"
)

// Role is the authorization tier of a user.  Only two tiers exist: admins
// manage the catalog, regular users write reviews.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole converts the stored or claimed role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// User represents an application user record as stored in the `users`
// table.  PasswordHash never leaves the repository/handler boundary; the
// JSON shape is produced by handler.UserResource.
//
// Fields:
//
//	ID               – primary key identifier of the user.
//	Username         – unique display name.
//	Email            – unique email address, immutable after registration.
//	PasswordHash     – bcrypt hashed password.
//	Role             – admin or user.
//	RegistrationDate – when the account was created.
type User struct {
	ID               uint64    // users.id
	Username         string    // users.username
	Email            string    // users.email
	PasswordHash     string    // users.password_hash
	Role             Role      // users.role
	RegistrationDate time.Time // users.registration_date
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}

// IsAdmin reports whether the user passes the role gate.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// AccessToken models an entry in the `access_tokens` table.  Each issued
// bearer token carries its TokenID as the JWT "jti" claim; revoking the row
// invalidates the token even though its signature stays valid.
type AccessToken struct {
	ID        uint64     // access_tokens.id
	UserID    uint64     // access_tokens.user_id
	TokenID   string     // access_tokens.token_id
	ExpiresAt *time.Time // access_tokens.expires_at (nullable)
	RevokedAt *time.Time // access_tokens.revoked_at (nullable)
	CreatedAt time.Time  // access_tokens.created_at
}
