package models

import "time"

// DefaultRole is assigned at registration and assumed when a stored record
// omits the role attribute.
const DefaultRole = "user"

// User is a persisted account record. UserID is the immutable primary key,
// Email is unique across all records. Role and IsActive may be absent in
// older records; every read boundary resolves them through ResolveRole and
// ResolveActive rather than trusting the store to supply defaults.
type User struct {
	UserID       string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     *bool
	CreatedAt    time.Time
}

// PublicUser is the outward-facing projection of a User. It never carries
// the password hash.
type PublicUser struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// ResolveRole applies the role default for records persisted without one.
func ResolveRole(role string) string {
	if role == "" {
		return DefaultRole
	}
	return role
}

// ResolveActive applies the activity default for records persisted without
// the flag.
func ResolveActive(active *bool) bool {
	if active == nil {
		return true
	}
	return *active
}

// Public returns the user's public projection with defaulting applied.
func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:    u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      ResolveRole(u.Role),
		IsActive:  ResolveActive(u.IsActive),
		CreatedAt: u.CreatedAt,
	}
}
