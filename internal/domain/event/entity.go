package event

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates an event could not be located.
	ErrNotFound = errors.New("event not found")
	// ErrCategoryNotFound indicates a referenced category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrDuplicateCategory signals category name uniqueness breaches.
	ErrDuplicateCategory = errors.New("category with this name already exists")
	// ErrCategoryInUse means events still reference the category.
	ErrCategoryInUse = errors.New("category still has events")
	// ErrNotOwner means the caller neither owns the event nor is an admin.
	ErrNotOwner = errors.New("event belongs to another user")
)

// Category groups events.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Event captures a single scheduled event.
type Event struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	EventTime    time.Time `json:"event_time"`
	Location     string    `json:"location"`
	UserID       int64     `json:"user_id,omitempty"`
	UserEmail    string    `json:"user_email,omitempty"`
	IsApproved   bool      `json:"is_approved"`
}

// Public strips owner details for anonymous listings.
func (e *Event) Public() *Event {
	out := *e
	out.UserID = 0
	out.UserEmail = ""
	return &out
}
