package memory

import (
	"context"

	domain "eventboard/backend/internal/domain/auth"
)

// UserRepository keeps users in a Store.
type UserRepository struct {
	s *Store
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Create inserts a new user record and assigns its id. The email check and
// insert happen under one lock, so concurrent duplicates lose with
// ErrEmailExists.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.emails[user.Email]; exists {
		return domain.ErrEmailExists
	}
	r.s.nextUser++
	user.ID = r.s.nextUser
	r.s.users[user.ID] = *user
	r.s.emails[user.Email] = user.ID
	return nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// UpdateRole changes a user's role.
func (r *UserRepository) UpdateRole(_ context.Context, id int64, role domain.UserRole) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}
