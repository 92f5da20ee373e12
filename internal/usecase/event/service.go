package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	authdomain "eventboard/backend/internal/domain/auth"
	domain "eventboard/backend/internal/domain/event"
	"eventboard/backend/internal/domain/validation"
)

// Service encapsulates event use cases.
type Service struct {
	repo domain.Repository
}

// NewService constructs an event service.
func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

var validate = validation.MustNew(validation.Rule{
	Tag:     "eventtime",
	Message: "event_time must be an ISO 8601 date",
	Check: func(raw string) bool {
		_, err := parseEventTime(raw)
		return err == nil
	},
})

// CreateInput contains the payload required for event creation.
type CreateInput struct {
	Title      string `json:"title" validate:"required"`
	CategoryID int64  `json:"category_id" validate:"gt=0"`
	EventTime  string `json:"event_time" validate:"eventtime"`
	Location   string `json:"location" validate:"required"`
}

// UnmarshalJSON accepts category_id as a number or a numeric string.
// Anything else decodes as zero and fails validation on that field.
func (in *CreateInput) UnmarshalJSON(data []byte) error {
	type plain CreateInput
	var raw struct {
		plain
		CategoryID json.RawMessage `json:"category_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = CreateInput(raw.plain)
	in.CategoryID = parseCategoryID(raw.CategoryID)
	return nil
}

func parseCategoryID(raw json.RawMessage) int64 {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// List returns every event with category and owner details.
func (s *Service) List(ctx context.Context) ([]*domain.Event, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return nonNil(items), nil
}

// ListPublic returns approved events in chronological order.
func (s *Service) ListPublic(ctx context.Context) ([]*domain.Event, error) {
	items, err := s.repo.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing public events: %w", err)
	}
	return nonNil(items), nil
}

// Create stores a new, unapproved event owned by the caller.
func (s *Service) Create(ctx context.Context, owner *authdomain.Identity, input CreateInput) (*domain.Event, error) {
	if owner == nil {
		return nil, authdomain.ErrUnauthenticated
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Location = strings.TrimSpace(input.Location)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	eventTime, err := parseEventTime(input.EventTime)
	if err != nil {
		return nil, fmt.Errorf("parsing event time: %w", err)
	}

	e := &domain.Event{
		Title:      input.Title,
		CategoryID: input.CategoryID,
		EventTime:  eventTime,
		Location:   input.Location,
		UserID:     owner.ID,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		switch {
		case errors.Is(err, domain.ErrCategoryNotFound):
			return nil, validation.Field("category_id", "category does not exist")
		case errors.Is(err, authdomain.ErrUserNotFound):
			// The caller's account was removed after the token was resolved.
			return nil, authdomain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return e, nil
}

// Delete removes an event. Only its owner or an admin may do so.
func (s *Service) Delete(ctx context.Context, caller *authdomain.Identity, id int64) error {
	if caller == nil {
		return authdomain.ErrUnauthenticated
	}
	if id <= 0 {
		return validation.Field("id", "id must be a positive integer")
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.UserID != caller.ID && !caller.HasRole(authdomain.RoleAdmin) {
		return domain.ErrNotOwner
	}
	return s.repo.Delete(ctx, id)
}

// Approve publishes an event.
func (s *Service) Approve(ctx context.Context, id int64) error {
	if id <= 0 {
		return validation.Field("id", "id must be a positive integer")
	}
	return s.repo.Approve(ctx, id)
}

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseEventTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range eventTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func nonNil(items []*domain.Event) []*domain.Event {
	if items == nil {
		return []*domain.Event{}
	}
	return items
}
