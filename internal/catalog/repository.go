package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, sub_category_id, name, unit, price, stock, created_at, updated_at`

// ListTree loads categories with their sub-categories and items.
func (r *Repository) ListTree(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, c.description, s.id, s.name
FROM catalog_categories c
LEFT JOIN catalog_sub_categories s ON s.category_id = c.id
ORDER BY c.name, s.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	subIndex := make(map[uuid.UUID][2]int)
	for rows.Next() {
		var (
			catID    uuid.UUID
			catName  string
			catDesc  *string
			subID    *uuid.UUID
			subName  *string
		)
		if err := rows.Scan(&catID, &catName, &catDesc, &subID, &subName); err != nil {
			return nil, err
		}
		if len(categories) == 0 || categories[len(categories)-1].ID != catID {
			categories = append(categories, Category{ID: catID, Name: catName, Description: catDesc, SubCategories: []SubCategory{}})
		}
		if subID == nil {
			continue
		}
		ci := len(categories) - 1
		categories[ci].SubCategories = append(categories[ci].SubCategories, SubCategory{ID: *subID, CategoryID: catID, Name: deref(subName), Items: []Item{}})
		subIndex[*subID] = [2]int{ci, len(categories[ci].SubCategories) - 1}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.queryItems(ctx, `SELECT `+itemColumns+` FROM catalog_items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		pos, ok := subIndex[item.SubCategoryID]
		if !ok {
			continue
		}
		sub := &categories[pos[0]].SubCategories[pos[1]]
		sub.Items = append(sub.Items, item)
	}
	return categories, nil
}

// GetItem loads a single item.
func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return item, err
}

// ListItemsByIDs loads the items whose ids are given; unknown ids are skipped.
func (r *Repository) ListItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryItems(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = ANY($1)`, ids)
}

// ListStockTracked returns every item with stock > 0 in natural query order.
// Items with NULL or zero stock are services and are deliberately excluded.
func (r *Repository) ListStockTracked(ctx context.Context) ([]Item, error) {
	return r.queryItems(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE stock > 0`)
}

// ListLowStock returns tracked items whose stock is at or below threshold.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]Item, error) {
	return r.queryItems(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE stock > 0 AND stock <= $1 ORDER BY stock ASC, name`, threshold)
}

// CreateItem inserts a catalog item.
func (r *Repository) CreateItem(ctx context.Context, in CreateItemInput) (Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `INSERT INTO catalog_items (sub_category_id, name, unit, price, stock)
VALUES ($1, $2, $3, $4, $5) RETURNING `+itemColumns, in.SubCategoryID, in.Name, in.Unit, in.Price, in.Stock))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Item{}, ErrSubCategoryNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// UpdateItem applies a stock/price patch.
func (r *Repository) UpdateItem(ctx context.Context, id uuid.UUID, in UpdateItemInput) (Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `UPDATE catalog_items
SET stock = COALESCE($2, stock), price = COALESCE($3, price), updated_at = NOW()
WHERE id = $1 RETURNING `+itemColumns, id, in.Stock, in.Price))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return item, err
}

// AdjustStock adds delta to the stock count of an item inside an existing
// transaction and returns the new value.
func AdjustStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) (int, error) {
	var stock int
	err := tx.QueryRow(ctx, `UPDATE catalog_items SET stock = COALESCE(stock, 0) + $2, updated_at = NOW() WHERE id = $1 RETURNING stock`, id, delta).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("catalog: adjust stock: %w", err)
	}
	return stock, nil
}

func (r *Repository) queryItems(ctx context.Context, sql string, args ...any) ([]Item, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.SubCategoryID, &item.Name, &item.Unit, &item.Price, &item.Stock, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
