package catering

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// RepositoryPort abstracts catering persistence.
type RepositoryPort interface {
	ListIngredients(ctx context.Context) ([]Ingredient, error)
	IngredientsByIDs(ctx context.Context, ids []uuid.UUID) ([]Ingredient, error)
	CreateIngredient(ctx context.Context, in IngredientInput) (Ingredient, error)
	ListDishes(ctx context.Context) ([]Dish, error)
	CreateDish(ctx context.Context, in DishInput, cost float64) (Dish, error)
	ListMenus(ctx context.Context) ([]Menu, error)
	CreateMenu(ctx context.Context, in MenuInput) (Menu, error)
}

// Service coordinates catering operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Ingredients lists ingredients by name.
func (s *Service) Ingredients(ctx context.Context) ([]Ingredient, error) {
	return s.repo.ListIngredients(ctx)
}

// CreateIngredient validates and stores an ingredient.
func (s *Service) CreateIngredient(ctx context.Context, in IngredientInput) (Ingredient, error) {
	if err := httpx.Validate(in); err != nil {
		return Ingredient{}, err
	}
	return s.repo.CreateIngredient(ctx, in)
}

// Dishes lists dishes with recipes.
func (s *Service) Dishes(ctx context.Context) ([]Dish, error) {
	return s.repo.ListDishes(ctx)
}

// CreateDish costs the recipe from current ingredient costs and stores the dish.
func (s *Service) CreateDish(ctx context.Context, in DishInput) (Dish, error) {
	if err := httpx.Validate(in); err != nil {
		return Dish{}, err
	}
	cost, err := s.recipeCost(ctx, in.Recipe)
	if err != nil {
		return Dish{}, err
	}
	return s.repo.CreateDish(ctx, in, cost)
}

func (s *Service) recipeCost(ctx context.Context, recipe []RecipeInput) (float64, error) {
	if len(recipe) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(recipe))
	for _, line := range recipe {
		ids = append(ids, line.IngredientID)
	}
	found, err := s.repo.IngredientsByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return 0, fmt.Errorf("catering: load ingredients: %w", err)
	}
	costs := make(map[uuid.UUID]float64, len(found))
	for _, ing := range found {
		costs[ing.ID] = ing.CostPerUnit
	}
	var total float64
	for _, line := range recipe {
		c, ok := costs[line.IngredientID]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownIngredient, line.IngredientID)
		}
		total += c * line.Quantity
	}
	return roundTo(total, 4), nil
}

// Menus lists menus with their dishes.
func (s *Service) Menus(ctx context.Context) ([]Menu, error) {
	return s.repo.ListMenus(ctx)
}

// CreateMenu stores a menu built from existing dishes.
func (s *Service) CreateMenu(ctx context.Context, in MenuInput) (Menu, error) {
	if err := httpx.Validate(in); err != nil {
		return Menu{}, err
	}
	in.DishIDs = uniqueIDs(in.DishIDs)
	return s.repo.CreateMenu(ctx, in)
}
