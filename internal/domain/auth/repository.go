package auth

import "context"

// UserRepository defines persistence operations for auth users.
//
// Create must enforce email uniqueness atomically and report a violation
// as ErrEmailExists. Lookups report a missing row as ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdateRole(ctx context.Context, id int64, role UserRole) error
}
