package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// StatusPending marks payments and expenses not yet settled.
const StatusPending = "Pendiente"

// Payment is income received for an event.
type Payment struct {
	ID         uuid.UUID `json:"id"`
	EventID    uuid.UUID `json:"event_id"`
	EventName  string    `json:"event_name"`
	ClientName string    `json:"client_name,omitempty"`
	Amount     float64   `json:"amount"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	Reference  *string   `json:"reference,omitempty"`
	Date       time.Time `json:"date"`
}

// Expense is a cost, optionally owed to a supplier.
type Expense struct {
	ID           uuid.UUID  `json:"id"`
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty"`
	SupplierName string     `json:"supplier_name,omitempty"`
	Description  string     `json:"description"`
	Amount       float64    `json:"amount"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	Date         time.Time  `json:"date"`
}

// Stats summarises the ledger.
type Stats struct {
	TotalIncome     float64 `json:"total_income"`
	TotalExpenses   float64 `json:"total_expenses"`
	NetProfit       float64 `json:"net_profit"`
	PendingIncome   float64 `json:"pending_income"`
	PendingExpenses float64 `json:"pending_expenses"`
}

// PaymentInput describes a new payment.
type PaymentInput struct {
	EventID   uuid.UUID `json:"event_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"gt=0"`
	Method    string    `json:"method" validate:"required,max=40"`
	Status    string    `json:"status" validate:"required,max=40"`
	Reference *string   `json:"reference" validate:"omitempty,max=120"`
}

// ExpenseInput describes a new expense.
type ExpenseInput struct {
	SupplierID  *uuid.UUID `json:"supplier_id"`
	Description string     `json:"description" validate:"required,max=500"`
	Amount      float64    `json:"amount" validate:"gt=0"`
	Category    string     `json:"category" validate:"required,max=80"`
	Status      string     `json:"status" validate:"required,max=40"`
}

var (
	// ErrEventNotFound indicates a payment for an unknown event.
	ErrEventNotFound = fmt.Errorf("finance: event %w", httpx.ErrNotFound)
	// ErrSupplierNotFound indicates an expense for an unknown supplier.
	ErrSupplierNotFound = fmt.Errorf("finance: supplier %w", httpx.ErrNotFound)
)
