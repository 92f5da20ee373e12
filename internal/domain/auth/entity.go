package auth

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials indicates a login failure. Unknown email and
	// wrong password both map to it.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("email already registered")
	// ErrUnauthenticated means a bearer token is missing, invalid, expired
	// or points at a user that no longer exists.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the identity lacks the required role.
	ErrForbidden = errors.New("insufficient privileges")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
)

// UserRole identifies the privileges assigned to a user.
type UserRole string

const (
	// RoleUser represents a standard application user.
	RoleUser UserRole = "user"
	// RoleAdmin represents an administrative user.
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User models the authentication entity persisted in storage.
type User struct {
	ID           int64
	Email        string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
}

// Identity returns the public view of the user.
func (u *User) Identity() *Identity {
	return &Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Identity is the authenticated principal attached to a single request.
type Identity struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// HasRole reports whether the identity carries role.
func (i *Identity) HasRole(role UserRole) bool {
	return i != nil && i.Role == role
}

// Session is returned by registration and login.
type Session struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

// Credentials captures raw credential input.
type Credentials struct {
	Email    string
	Password string
}
