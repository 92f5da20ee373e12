package postgres

import (
	"context"
	"errors"

	authdomain "eventboard/backend/internal/domain/auth"
	domain "eventboard/backend/internal/domain/event"

	"github.com/jackc/pgx/v5"
)

// EventRepository persists events in PostgreSQL.
type EventRepository struct {
	db DBTX
}

// NewEventRepository constructs a repository.
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

var _ domain.Repository = (*EventRepository)(nil)

const selectEvents = `
SELECT e.id, e.title, e.category_id, c.name, e.event_time, e.location, e.user_id, u.email, e.is_approved
FROM events e
JOIN categories c ON e.category_id = c.id
JOIN users u ON e.user_id = u.id
`

// Create inserts a new event and sets its id.
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
INSERT INTO events (title, category_id, event_time, location, user_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, is_approved
`
	err := r.db.QueryRow(ctx, query,
		event.Title,
		event.CategoryID,
		event.EventTime,
		event.Location,
		event.UserID,
	).Scan(&event.ID, &event.IsApproved)
	if err != nil {
		if isForeignKeyViolation(err) {
			if violatedConstraint(err) == constraintEventOwner {
				return authdomain.ErrUserNotFound
			}
			return domain.ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// GetByID fetches an event by id.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	row := r.db.QueryRow(ctx, selectEvents+"WHERE e.id = $1", id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

// List returns every event, newest first.
func (r *EventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	return r.list(ctx, selectEvents+"ORDER BY e.id DESC")
}

// ListApproved returns approved events in chronological order without
// owner details.
func (r *EventRepository) ListApproved(ctx context.Context) ([]*domain.Event, error) {
	events, err := r.list(ctx, selectEvents+"WHERE e.is_approved = TRUE\nORDER BY e.event_time ASC, e.id ASC")
	if err != nil {
		return nil, err
	}
	for i, e := range events {
		events[i] = e.Public()
	}
	return events, nil
}

// Approve marks an event as approved.
func (r *EventRepository) Approve(ctx context.Context, id int64) error {
	const query = `UPDATE events SET is_approved = TRUE WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an event by id.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM events WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EventRepository) list(ctx context.Context, query string) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.CategoryID,
		&e.CategoryName,
		&e.EventTime,
		&e.Location,
		&e.UserID,
		&e.UserEmail,
		&e.IsApproved,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
