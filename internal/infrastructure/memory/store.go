// Package memory keeps users, categories and events in process memory.
// It mirrors the constraints of the PostgreSQL schema (unique emails,
// unique category names, event foreign keys) and is used for local
// development and tests.
package memory

import (
	"sync"

	authdomain "eventboard/backend/internal/domain/auth"
	eventdomain "eventboard/backend/internal/domain/event"
)

// Store is a mutex-guarded in-memory database.
type Store struct {
	mu sync.RWMutex

	users      map[int64]authdomain.User
	emails     map[string]int64
	categories map[int64]eventdomain.Category
	names      map[string]int64
	events     map[int64]eventdomain.Event
	nextUser   int64
	nextCat    int64
	nextEvent  int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:      map[int64]authdomain.User{},
		emails:     map[string]int64{},
		categories: map[int64]eventdomain.Category{},
		names:      map[string]int64{},
		events:     map[int64]eventdomain.Event{},
	}
}

// Users returns the store's user repository.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Categories returns the store's category repository.
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Events returns the store's event repository.
func (s *Store) Events() *EventRepository { return &EventRepository{s: s} }
