// Package catering manages ingredients, costed dishes and menus.
package catering

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Ingredient is a purchasable kitchen input.
type Ingredient struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	CostPerUnit float64   `json:"cost_per_unit"`
	Stock       float64   `json:"stock"`
}

// RecipeItem is the quantity of one ingredient used by a dish.
type RecipeItem struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	Quantity     float64   `json:"quantity"`
}

// Dish is a sellable preparation. Cost is snapshotted from ingredient costs
// when the dish is created.
type Dish struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Price       float64      `json:"price"`
	Cost        float64      `json:"cost"`
	Recipe      []RecipeItem `json:"recipe"`
}

// Margin is price minus cost.
func (d Dish) Margin() float64 {
	return roundTo(d.Price-d.Cost, 2)
}

// MenuDish is the short form of a dish inside a menu.
type MenuDish struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Menu groups dishes offered together.
type Menu struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Dishes      []MenuDish `json:"dishes"`
}

// IngredientInput describes a new ingredient.
type IngredientInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Unit        string  `json:"unit" validate:"required,max=20"`
	CostPerUnit float64 `json:"cost_per_unit" validate:"gte=0"`
	Stock       float64 `json:"stock" validate:"gte=0"`
}

// RecipeInput is one recipe line of a new dish.
type RecipeInput struct {
	IngredientID uuid.UUID `json:"ingredient_id" validate:"required"`
	Quantity     float64   `json:"quantity" validate:"gt=0"`
}

// DishInput describes a new dish.
type DishInput struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Description *string       `json:"description"`
	Price       float64       `json:"price" validate:"gte=0"`
	Recipe      []RecipeInput `json:"recipe" validate:"dive"`
}

// MenuInput describes a new menu.
type MenuInput struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Description *string     `json:"description"`
	DishIDs     []uuid.UUID `json:"dish_ids" validate:"required,min=1"`
}

var (
	// ErrUnknownIngredient indicates a recipe references a missing ingredient.
	ErrUnknownIngredient = fmt.Errorf("catering: unknown ingredient: %w", httpx.ErrValidation)
	// ErrUnknownDish indicates a menu references a missing dish.
	ErrUnknownDish = fmt.Errorf("catering: unknown dish: %w", httpx.ErrValidation)
)

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
