package event

import "context"

// Repository defines persistence behaviours for events.
type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	ListApproved(ctx context.Context) ([]*Event, error)
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository defines persistence behaviours for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	List(ctx context.Context) ([]*Category, error)
	Delete(ctx context.Context, id int64) error
}
