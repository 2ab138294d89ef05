package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Category groups sub-categories of sellable or rentable items.
type Category struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Description   *string       `json:"description,omitempty"`
	SubCategories []SubCategory `json:"sub_categories"`
}

// SubCategory groups catalog items.
type SubCategory struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Items      []Item    `json:"items"`
}

// Item is a sellable or rentable catalog entry.
//
// Stock is nil or 0 for services that are not inventory-tracked (a DJ, a
// planner). Only items with positive stock take part in availability.
type Item struct {
	ID            uuid.UUID `json:"id"`
	SubCategoryID uuid.UUID `json:"sub_category_id"`
	Name          string    `json:"name"`
	Unit          string    `json:"unit"`
	Price         float64   `json:"price"`
	Stock         *int      `json:"stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Tracked reports whether the item is subject to stock accounting.
func (i Item) Tracked() bool {
	return i.Stock != nil && *i.Stock > 0
}

// StockValue returns the stock count treating nil as zero.
func (i Item) StockValue() int {
	if i.Stock == nil {
		return 0
	}
	return *i.Stock
}

// CreateItemInput describes a new catalog item.
type CreateItemInput struct {
	SubCategoryID uuid.UUID `json:"sub_category_id" validate:"required"`
	Name          string    `json:"name" validate:"required,max=200"`
	Unit          string    `json:"unit" validate:"max=40"`
	Price         float64   `json:"price" validate:"gte=0"`
	Stock         *int      `json:"stock" validate:"omitempty,gte=0"`
}

// UpdateItemInput patches stock and/or price. Nil fields are left untouched.
type UpdateItemInput struct {
	Stock *int     `json:"stock" validate:"omitempty,gte=0"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

var (
	// ErrItemNotFound indicates the catalog item does not exist.
	ErrItemNotFound = fmt.Errorf("catalog: item %w", httpx.ErrNotFound)
	// ErrSubCategoryNotFound indicates an unknown sub-category reference.
	ErrSubCategoryNotFound = fmt.Errorf("catalog: sub-category %w", httpx.ErrNotFound)
	// ErrEmptyUpdate indicates a patch without fields.
	ErrEmptyUpdate = fmt.Errorf("catalog: %w: stock or price required", httpx.ErrValidation)
	// ErrNegativeValue indicates a negative stock or price.
	ErrNegativeValue = fmt.Errorf("catalog: %w: stock and price must be >= 0", httpx.ErrValidation)
)

// IsNotFound reports whether err originates from a missing catalog row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrSubCategoryNotFound)
}
