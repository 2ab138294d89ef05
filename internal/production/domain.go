// Package production stores venue floor plans and day-of timelines per event.
package production

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// DefaultLayoutName is used when a layout is saved without a name.
const DefaultLayoutName = "Default Layout"

// Layout is the floor plan of an event. Data is an opaque document of placed
// objects with absolute pixel coordinates, owned by the client.
type Layout struct {
	ID        uuid.UUID       `json:"id"`
	EventID   uuid.UUID       `json:"event_id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LayoutInput upserts the layout of an event.
type LayoutInput struct {
	EventID uuid.UUID       `json:"event_id" validate:"required"`
	Name    string          `json:"name" validate:"max=200"`
	Data    json.RawMessage `json:"data"`
}

// Timeline is the ordered run of show of an event.
type Timeline struct {
	ID      uuid.UUID      `json:"id"`
	EventID uuid.UUID      `json:"event_id"`
	Items   []TimelineItem `json:"items"`
}

// TimelineItem is one entry of a timeline.
type TimelineItem struct {
	ID          uuid.UUID `json:"id"`
	TimelineID  uuid.UUID `json:"timeline_id"`
	Time        string    `json:"time"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
}

// TimelineItemInput appends an item to the timeline of an event.
type TimelineItemInput struct {
	EventID     uuid.UUID `json:"event_id" validate:"required"`
	Time        string    `json:"time" validate:"required,max=20"`
	Description string    `json:"description" validate:"required,max=500"`
}

var (
	// ErrEventNotFound indicates the referenced event does not exist.
	ErrEventNotFound = fmt.Errorf("production: event %w", httpx.ErrNotFound)
	// ErrItemNotFound indicates the timeline item does not exist.
	ErrItemNotFound = fmt.Errorf("production: timeline item %w", httpx.ErrNotFound)
	// ErrInvalidLayoutData indicates layout data is not a JSON object or array.
	ErrInvalidLayoutData = fmt.Errorf("production: layout data must be an object or array: %w", httpx.ErrValidation)
)
