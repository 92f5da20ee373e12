package category

import (
	"context"
	"fmt"
	"strings"

	domain "eventboard/backend/internal/domain/event"
	"eventboard/backend/internal/domain/validation"
)

// Service encapsulates category use cases.
type Service struct {
	repo domain.CategoryRepository
}

// NewService constructs a category service.
func NewService(repo domain.CategoryRepository) *Service {
	return &Service{repo: repo}
}

var validate = validation.MustNew()

// CreateInput contains the payload required for category creation.
type CreateInput struct {
	Name string `json:"name" validate:"required"`
}

// List returns all categories ordered by name.
func (s *Service) List(ctx context.Context) ([]*domain.Category, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	if items == nil {
		items = []*domain.Category{}
	}
	return items, nil
}

// Create stores a new category after validation.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	c := &domain.Category{Name: input.Name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a category.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return validation.Field("id", "id must be a positive integer")
	}
	return s.repo.Delete(ctx, id)
}
