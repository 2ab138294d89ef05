package quotes

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusAccepted, StatusRejected},
	StatusSent:  {StatusAccepted, StatusRejected},
}

// CanTransition reports whether a quote may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Quote is a priced proposal for an event. At most one quote per event is
// ACCEPTED; its items are what the event reserves from inventory.
type Quote struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	Status    Status    `json:"status"`
	Subtotal  float64   `json:"subtotal"`
	Notes     *string   `json:"notes,omitempty"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is one quoted catalog line. UnitPrice is the catalog price at the
// time the quote was created.
type Item struct {
	ID            uuid.UUID `json:"id"`
	QuoteID       uuid.UUID `json:"quote_id"`
	CatalogItemID uuid.UUID `json:"catalog_item_id"`
	Name          string    `json:"name"`
	Unit          string    `json:"unit"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	Notes         *string   `json:"notes,omitempty"`
}

// Total returns quantity times unit price rounded to cents.
func (i Item) Total() float64 {
	return roundCents(float64(i.Quantity) * i.UnitPrice)
}

// ItemInput references a catalog item with a quantity.
type ItemInput struct {
	CatalogItemID uuid.UUID `json:"catalog_item_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"gt=0"`
	Notes         *string   `json:"notes"`
}

// CreateQuoteInput describes a new DRAFT quote.
type CreateQuoteInput struct {
	EventID uuid.UUID   `json:"event_id" validate:"required"`
	Notes   *string     `json:"notes"`
	Items   []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// DraftPDFInput describes an unsaved quote rendered straight to PDF.
type DraftPDFInput struct {
	EventName  string      `json:"event_name" validate:"required"`
	GuestCount int         `json:"guest_count" validate:"gte=0"`
	Date       string      `json:"date"`
	Notes      *string     `json:"notes"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
}

var (
	// ErrQuoteNotFound indicates the quote does not exist.
	ErrQuoteNotFound = fmt.Errorf("quotes: quote %w", httpx.ErrNotFound)
	// ErrEventNotFound indicates an unknown event reference.
	ErrEventNotFound = fmt.Errorf("quotes: event %w", httpx.ErrNotFound)
	// ErrUnknownCatalogItem indicates a line references a missing catalog item.
	ErrUnknownCatalogItem = fmt.Errorf("quotes: %w: unknown catalog item", httpx.ErrValidation)
	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = fmt.Errorf("quotes: %w: status transition not allowed", httpx.ErrConflict)
	// ErrAlreadyAccepted indicates another quote of the event is ACCEPTED.
	ErrAlreadyAccepted = fmt.Errorf("quotes: %w: event already has an accepted quote", httpx.ErrConflict)
)

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
