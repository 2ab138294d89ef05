package catering

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primavera-events/primavera/internal/platform/db"
)

// Repository persists catering data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListIngredients returns ingredients ordered by name.
func (r *Repository) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	return r.queryIngredients(ctx, `SELECT id, name, unit, cost_per_unit::float8, stock::float8 FROM ingredients ORDER BY name`)
}

// IngredientsByIDs returns the ingredients matching ids.
func (r *Repository) IngredientsByIDs(ctx context.Context, ids []uuid.UUID) ([]Ingredient, error) {
	return r.queryIngredients(ctx, `SELECT id, name, unit, cost_per_unit::float8, stock::float8 FROM ingredients WHERE id = ANY($1)`, ids)
}

func (r *Repository) queryIngredients(ctx context.Context, sql string, args ...any) ([]Ingredient, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Ingredient{}
	for rows.Next() {
		var in Ingredient
		if err := rows.Scan(&in.ID, &in.Name, &in.Unit, &in.CostPerUnit, &in.Stock); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// CreateIngredient inserts an ingredient.
func (r *Repository) CreateIngredient(ctx context.Context, in IngredientInput) (Ingredient, error) {
	out := Ingredient{Name: in.Name, Unit: in.Unit, CostPerUnit: in.CostPerUnit, Stock: in.Stock}
	err := r.pool.QueryRow(ctx, `INSERT INTO ingredients (name, unit, cost_per_unit, stock) VALUES ($1, $2, $3, $4) RETURNING id`,
		in.Name, in.Unit, in.CostPerUnit, in.Stock).Scan(&out.ID)
	return out, err
}

// ListDishes returns dishes with their recipes, ordered by name.
func (r *Repository) ListDishes(ctx context.Context) ([]Dish, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, price::float8, cost::float8 FROM dishes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var dishes []Dish
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var d Dish
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.Cost); err != nil {
			rows.Close()
			return nil, err
		}
		d.Recipe = []RecipeItem{}
		index[d.ID] = len(dishes)
		dishes = append(dishes, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dishes) == 0 {
		return []Dish{}, nil
	}

	rows, err = r.pool.Query(ctx, `SELECT ri.dish_id, ri.ingredient_id, i.name, i.unit, ri.quantity::float8
FROM recipe_items ri JOIN ingredients i ON i.id = ri.ingredient_id
ORDER BY i.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var dishID uuid.UUID
		var item RecipeItem
		if err := rows.Scan(&dishID, &item.IngredientID, &item.Name, &item.Unit, &item.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[dishID]; ok {
			dishes[i].Recipe = append(dishes[i].Recipe, item)
		}
	}
	return dishes, rows.Err()
}

// CreateDish inserts a dish and its recipe with the given cost.
func (r *Repository) CreateDish(ctx context.Context, in DishInput, cost float64) (Dish, error) {
	out := Dish{Name: in.Name, Description: in.Description, Price: in.Price, Cost: cost, Recipe: []RecipeItem{}}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO dishes (name, description, price, cost) VALUES ($1, $2, $3, $4) RETURNING id`,
			in.Name, in.Description, in.Price, cost).Scan(&out.ID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, line := range in.Recipe {
			batch.Queue(`INSERT INTO recipe_items (dish_id, ingredient_id, quantity) VALUES ($1, $2, $3)`, out.ID, line.IngredientID, line.Quantity)
			out.Recipe = append(out.Recipe, RecipeItem{IngredientID: line.IngredientID, Quantity: line.Quantity})
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if isForeignKeyViolation(err) {
		return Dish{}, ErrUnknownIngredient
	}
	return out, err
}

// ListMenus returns menus with their dishes, ordered by name.
func (r *Repository) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := r.pool.Query(ctx, `SELECT m.id, m.name, m.description, d.id, d.name
FROM menus m
LEFT JOIN menu_dishes md ON md.menu_id = m.id
LEFT JOIN dishes d ON d.id = md.dish_id
ORDER BY m.name, m.id, d.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Menu{}
	for rows.Next() {
		var (
			m        Menu
			dishID   *uuid.UUID
			dishName *string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &dishID, &dishName); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].ID != m.ID {
			m.Dishes = []MenuDish{}
			out = append(out, m)
		}
		if dishID != nil && dishName != nil {
			last := &out[len(out)-1]
			last.Dishes = append(last.Dishes, MenuDish{ID: *dishID, Name: *dishName})
		}
	}
	return out, rows.Err()
}

// CreateMenu inserts a menu connected to the given dishes.
func (r *Repository) CreateMenu(ctx context.Context, in MenuInput) (Menu, error) {
	out := Menu{Name: in.Name, Description: in.Description, Dishes: []MenuDish{}}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO menus (name, description) VALUES ($1, $2) RETURNING id`, in.Name, in.Description).Scan(&out.ID); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `INSERT INTO menu_dishes (menu_id, dish_id)
SELECT $1, d.id FROM dishes d WHERE d.id = ANY($2)
RETURNING dish_id, (SELECT name FROM dishes WHERE id = dish_id)`, out.ID, in.DishIDs)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var d MenuDish
			if err := rows.Scan(&d.ID, &d.Name); err != nil {
				return err
			}
			out.Dishes = append(out.Dishes, d)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(out.Dishes) != len(uniqueIDs(in.DishIDs)) {
			return ErrUnknownDish
		}
		return nil
	})
	return out, err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
