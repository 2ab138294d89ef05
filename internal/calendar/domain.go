package calendar

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Status is the lifecycle state of an event.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusDraft:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether an event may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Event is a booked or prospective celebration. Only CONFIRMED events
// reserve inventory.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	ClientName string     `json:"client_name,omitempty"`
	Name       string     `json:"name"`
	Type       *string    `json:"type,omitempty"`
	Date       time.Time  `json:"date"`
	GuestCount int        `json:"guest_count"`
	VenueID    *uuid.UUID `json:"venue_id,omitempty"`
	Venue      *string    `json:"venue,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ListFilter narrows event queries. Zero bounds are open; both bounds are
// inclusive.
type ListFilter struct {
	From    time.Time
	To      time.Time
	Status  Status
	VenueID *uuid.UUID
}

// CreateEventInput describes a new event. Date accepts RFC 3339 or a plain
// YYYY-MM-DD day interpreted in the calendar zone. When VenueID is set and
// Venue is empty the venue's name is stored as the free-text fallback.
type CreateEventInput struct {
	ClientID   *uuid.UUID `json:"client_id"`
	Name       string     `json:"name" validate:"required,max=200"`
	Type       *string    `json:"type"`
	Date       string     `json:"date" validate:"required"`
	GuestCount int        `json:"guest_count" validate:"gte=0"`
	VenueID    *uuid.UUID `json:"venue_id"`
	Venue      *string    `json:"venue"`
	Status     Status     `json:"status"`
}

// StatusInput carries a requested status transition.
type StatusInput struct {
	Status Status `json:"status" validate:"required"`
}

var (
	// ErrEventNotFound indicates the event does not exist.
	ErrEventNotFound = fmt.Errorf("calendar: event %w", httpx.ErrNotFound)
	// ErrClientNotFound indicates an unknown client reference.
	ErrClientNotFound = fmt.Errorf("calendar: client %w", httpx.ErrNotFound)
	// ErrVenueNotFound indicates an unknown venue reference.
	ErrVenueNotFound = fmt.Errorf("calendar: venue %w", httpx.ErrNotFound)
	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = fmt.Errorf("calendar: %w: status transition not allowed", httpx.ErrConflict)
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = fmt.Errorf("calendar: %w: unknown status", httpx.ErrValidation)
	// ErrInvalidDate indicates an unparseable date.
	ErrInvalidDate = fmt.Errorf("calendar: %w: date must be YYYY-MM-DD or RFC 3339", httpx.ErrValidation)
	// ErrInvalidRange indicates from is after to.
	ErrInvalidRange = fmt.Errorf("calendar: %w: from must not be after to", httpx.ErrValidation)
)

// DayLayout is the wire format of calendar days.
const DayLayout = "2006-01-02"

// DayBounds returns the first and last millisecond of the calendar day that
// contains t, evaluated in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DayLayout, value, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

func parseEventDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return ParseDay(value, loc)
}
