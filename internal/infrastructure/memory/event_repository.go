package memory

import (
	"context"
	"sort"

	authdomain "eventboard/backend/internal/domain/auth"
	domain "eventboard/backend/internal/domain/event"
)

// CategoryRepository keeps categories in a Store.
type CategoryRepository struct {
	s *Store
}

var _ domain.CategoryRepository = (*CategoryRepository)(nil)

// Create inserts a category and assigns its id.
func (r *CategoryRepository) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.names[category.Name]; exists {
		return domain.ErrDuplicateCategory
	}
	r.s.nextCat++
	category.ID = r.s.nextCat
	r.s.categories[category.ID] = *category
	r.s.names[category.Name] = category.ID
	return nil
}

// List returns all categories sorted by name.
func (r *CategoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a category that no event references.
func (r *CategoryRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	for _, e := range r.s.events {
		if e.CategoryID == id {
			return domain.ErrCategoryInUse
		}
	}
	delete(r.s.categories, id)
	delete(r.s.names, c.Name)
	return nil
}

// EventRepository keeps events in a Store.
type EventRepository struct {
	s *Store
}

var _ domain.Repository = (*EventRepository)(nil)

// Create inserts an event and assigns its id.
func (r *EventRepository) Create(_ context.Context, event *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[event.CategoryID]; !ok {
		return domain.ErrCategoryNotFound
	}
	if _, ok := r.s.users[event.UserID]; !ok {
		return authdomain.ErrUserNotFound
	}
	r.s.nextEvent++
	event.ID = r.s.nextEvent
	stored := *event
	stored.CategoryName = ""
	stored.UserEmail = ""
	r.s.events[event.ID] = stored
	return nil
}

// GetByID fetches an event by id.
func (r *EventRepository) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.join(e), nil
}

// List returns every event, newest id first.
func (r *EventRepository) List(_ context.Context) ([]*domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		out = append(out, r.join(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ListApproved returns approved events ordered by event time.
func (r *EventRepository) ListApproved(_ context.Context) ([]*domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Event
	for _, e := range r.s.events {
		if e.IsApproved {
			out = append(out, r.join(e).Public())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventTime.Equal(out[j].EventTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].EventTime.Before(out[j].EventTime)
	})
	return out, nil
}

// Approve marks an event as approved.
func (r *EventRepository) Approve(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.IsApproved = true
	r.s.events[id] = e
	return nil
}

// Delete removes an event by id.
func (r *EventRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.events, id)
	return nil
}

// join fills the category and owner columns. Callers hold the lock.
func (r *EventRepository) join(e domain.Event) *domain.Event {
	e.CategoryName = r.s.categories[e.CategoryID].Name
	if u, ok := r.s.users[e.UserID]; ok {
		e.UserEmail = u.Email
	}
	return &e
}
