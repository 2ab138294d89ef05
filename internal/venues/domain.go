// Package venues manages the halls and gardens where events take place and
// their monthly booking calendars.
package venues

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Package is a priced bundle a venue offers.
type Package struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Price    float64  `json:"price" validate:"gte=0"`
	Includes []string `json:"includes"`
}

// Venue is a bookable location.
type Venue struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Type         *string   `json:"type,omitempty"`
	Address      *string   `json:"address,omitempty"`
	City         *string   `json:"city,omitempty"`
	Capacity     int       `json:"capacity"`
	Description  *string   `json:"description,omitempty"`
	HourlyRate   float64   `json:"hourly_rate"`
	WorkingHours *string   `json:"working_hours,omitempty"`
	Services     []string  `json:"services"`
	Restrictions []string  `json:"restrictions"`
	Packages     []Package `json:"package_options"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VenueEvent is the calendar view of an event held at a venue.
type VenueEvent struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Date   time.Time       `json:"date"`
	Type   *string         `json:"type,omitempty"`
	Status calendar.Status `json:"status"`
}

// Detail is a venue together with its events.
type Detail struct {
	Venue
	Events []VenueEvent `json:"events"`
}

// VenueInput describes a venue on create and full update.
type VenueInput struct {
	Name         string    `json:"name" validate:"required,max=200"`
	Type         *string   `json:"type" validate:"omitempty,max=60"`
	Address      *string   `json:"address"`
	City         *string   `json:"city"`
	Capacity     int       `json:"capacity" validate:"gte=0"`
	Description  *string   `json:"description"`
	HourlyRate   float64   `json:"hourly_rate" validate:"gte=0"`
	WorkingHours *string   `json:"working_hours" validate:"omitempty,max=40"`
	Services     []string  `json:"services"`
	Restrictions []string  `json:"restrictions"`
	Packages     []Package `json:"package_options" validate:"dive"`
}

var (
	// ErrVenueNotFound indicates the venue does not exist.
	ErrVenueNotFound = fmt.Errorf("venues: venue %w", httpx.ErrNotFound)
	// ErrDuplicateName indicates another venue already uses the name.
	ErrDuplicateName = fmt.Errorf("venues: %w: name already in use", httpx.ErrConflict)
	// ErrInvalidMonth indicates a month or year outside the supported range.
	ErrInvalidMonth = fmt.Errorf("venues: %w: month must be 1-12 and year 2000-2100", httpx.ErrValidation)
)

func summarize(events []calendar.Event) []VenueEvent {
	out := make([]VenueEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, VenueEvent{ID: ev.ID, Name: ev.Name, Date: ev.Date, Type: ev.Type, Status: ev.Status})
	}
	return out
}
