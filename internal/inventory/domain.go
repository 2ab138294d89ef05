package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// AvailabilityStatus classifies an item for a given day.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "AVAILABLE"
	StatusUnavailable AvailabilityStatus = "UNAVAILABLE"
)

// ItemAvailability is the stock position of one tracked catalog item on a
// calendar day. Available may be negative when the day is overbooked.
type ItemAvailability struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Unit      string             `json:"unit"`
	Stock     int                `json:"stock"`
	Reserved  int                `json:"reserved"`
	Available int                `json:"available"`
	Status    AvailabilityStatus `json:"status"`
}

// MaintenanceType enumerates maintenance log kinds.
type MaintenanceType string

const (
	MaintenanceLoss        MaintenanceType = "Loss"
	MaintenanceReplacement MaintenanceType = "Replacement"
	MaintenanceRepair      MaintenanceType = "Repair"
)

// StockDelta returns the stock change a maintenance entry of this type
// applies for quantity units.
func (t MaintenanceType) StockDelta(quantity int) int {
	switch t {
	case MaintenanceLoss:
		return -quantity
	case MaintenanceReplacement:
		return quantity
	default:
		return 0
	}
}

// MaintenanceInput describes a maintenance entry.
type MaintenanceInput struct {
	ItemID   uuid.UUID       `json:"item_id" validate:"required"`
	Type     MaintenanceType `json:"type" validate:"required,oneof=Loss Replacement Repair"`
	Quantity int             `json:"quantity" validate:"gt=0"`
	Cost     float64         `json:"cost" validate:"gte=0"`
	Notes    *string         `json:"notes"`
}

// MaintenanceLog is a stored maintenance entry.
type MaintenanceLog struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Type      MaintenanceType `json:"type"`
	Quantity  int             `json:"quantity"`
	Cost      float64         `json:"cost"`
	Notes     *string         `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	// StockAfter is the item stock once the entry was applied.
	StockAfter int `json:"stock_after"`
}

// LowStockAlert flags a tracked item at or below the alert threshold.
type LowStockAlert struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
}

var (
	// ErrInvalidDate indicates a missing or unparseable date query.
	ErrInvalidDate = fmt.Errorf("inventory: %w: date must be YYYY-MM-DD", httpx.ErrValidation)
	// ErrInsufficientStock indicates a loss larger than the current stock.
	ErrInsufficientStock = fmt.Errorf("inventory: %w: loss exceeds current stock", httpx.ErrConflict)
)
