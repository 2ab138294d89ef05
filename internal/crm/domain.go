package crm

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// ClientType is the pipeline stage of a client.
type ClientType string

const (
	TypeLead     ClientType = "LEAD"
	TypeActive   ClientType = "ACTIVE"
	TypeVIP      ClientType = "VIP"
	TypeInactive ClientType = "INACTIVE"
)

// Client is a person or company booking events.
type Client struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Address   *string    `json:"address,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	Type      ClientType `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ClientDetail is a client with its booked events.
type ClientDetail struct {
	Client
	Events []calendar.Event `json:"events"`
}

// ClientInput carries create and update payloads.
type ClientInput struct {
	FirstName string     `json:"first_name" validate:"required,max=120"`
	LastName  string     `json:"last_name" validate:"max=120"`
	Email     *string    `json:"email" validate:"omitempty,email"`
	Phone     *string    `json:"phone" validate:"omitempty,max=40"`
	Address   *string    `json:"address"`
	Notes     *string    `json:"notes"`
	Type      ClientType `json:"type" validate:"omitempty,oneof=LEAD ACTIVE VIP INACTIVE"`
}

var (
	// ErrClientNotFound indicates the client does not exist.
	ErrClientNotFound = fmt.Errorf("crm: client %w", httpx.ErrNotFound)
	// ErrDuplicateEmail indicates another client already uses the email.
	ErrDuplicateEmail = fmt.Errorf("crm: email %w", httpx.ErrDuplicate)
)
