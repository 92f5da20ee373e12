package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "eventboard/backend/internal/domain/auth"
	"eventboard/backend/internal/domain/validation"
)

// Password limits. bcrypt only reads the first 72 bytes, so longer
// passwords are rejected rather than silently truncated.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

var validate = validation.MustNew(
	validation.Rule{
		Tag:     "dotteddomain",
		Message: "email must be a valid address",
		Check: func(email string) bool {
			return strings.Contains(email[strings.LastIndex(email, "@")+1:], ".")
		},
	},
	validation.Rule{
		Tag:     "bcryptlen",
		Message: fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes),
		Check:   func(pw string) bool { return len(pw) <= MaxPasswordBytes },
	},
)

// newAccount is validated before any account is created. The min tag
// mirrors MinPasswordLength.
type newAccount struct {
	Email    string `json:"email" validate:"required,email,dotteddomain"`
	Password string `json:"password" validate:"required,min=6,bcryptlen"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email,dotteddomain"`
	Password string `json:"password" validate:"required"`
}

type emailInput struct {
	Email string `json:"email" validate:"required,email,dotteddomain"`
}

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users   domain.UserRepository
	hasher  PasswordHasher
	tokens  TokenManager
	nowFunc func() time.Time
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, hasher PasswordHasher, tokens TokenManager) *Service {
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		nowFunc: time.Now,
	}
}

// Register creates a new user with the default role and signs them in.
func (s *Service) Register(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	email := strings.TrimSpace(creds.Email)
	password := strings.TrimSpace(creds.Password)

	if err := validate.Struct(newAccount{Email: email, Password: password}); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	user, err := s.createUser(ctx, email, password, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login validates credentials and returns a token plus user.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	email := strings.TrimSpace(creds.Email)
	password := strings.TrimSpace(creds.Password)

	if err := validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

// ResolveIdentity validates a bearer token and re-reads the user it names.
// The role always comes from storage, never from the token.
func (s *Service) ResolveIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolving identity: %w", err)
	}

	return user.Identity(), nil
}

// EnsureAdmin makes sure an administrator account exists for email.
// An existing account is promoted and keeps its password.
func (s *Service) EnsureAdmin(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	email := strings.TrimSpace(creds.Email)
	password := strings.TrimSpace(creds.Password)

	if err := validate.Struct(emailInput{Email: email}); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role != domain.RoleAdmin {
			if err := s.users.UpdateRole(ctx, user.ID, domain.RoleAdmin); err != nil {
				return nil, fmt.Errorf("promoting admin: %w", err)
			}
			user.Role = domain.RoleAdmin
		}
		return user.Identity(), nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("looking up admin: %w", err)
	}

	if err := validate.Struct(newAccount{Email: email, Password: password}); err != nil {
		return nil, err
	}
	user, err = s.createUser(ctx, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

func (s *Service) createUser(ctx context.Context, email, password string, role domain.UserRole) (*domain.User, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Role:         role,
		PasswordHash: hashed,
		CreatedAt:    s.nowFunc().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

func (s *Service) issue(user *domain.User) (*domain.Session, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &domain.Session{Token: token, User: user.Identity()}, nil
}
