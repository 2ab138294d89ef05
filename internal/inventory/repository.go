package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/platform/db"
)

// Repository persists maintenance logs in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordMaintenance stores a maintenance entry and applies its stock delta
// in one transaction. A loss that would drive stock below zero is rolled
// back with ErrInsufficientStock.
func (r *Repository) RecordMaintenance(ctx context.Context, in MaintenanceInput) (MaintenanceLog, error) {
	var entry MaintenanceLog
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var stock int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(stock, 0) FROM catalog_items WHERE id = $1 FOR UPDATE`, in.ItemID).Scan(&stock); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return catalog.ErrItemNotFound
			}
			return err
		}
		delta := in.Type.StockDelta(in.Quantity)
		if stock+delta < 0 {
			return ErrInsufficientStock
		}
		if delta != 0 {
			updated, err := catalog.AdjustStock(ctx, tx, in.ItemID, delta)
			if err != nil {
				return err
			}
			stock = updated
		}
		var typ string
		err := tx.QueryRow(ctx, `INSERT INTO maintenance_logs (item_id, type, quantity, cost, notes)
VALUES ($1, $2, $3, $4, $5) RETURNING id, item_id, type, quantity, cost, notes, created_at`,
			in.ItemID, string(in.Type), in.Quantity, in.Cost, in.Notes).
			Scan(&entry.ID, &entry.ItemID, &typ, &entry.Quantity, &entry.Cost, &entry.Notes, &entry.CreatedAt)
		if err != nil {
			return err
		}
		entry.Type = MaintenanceType(typ)
		entry.StockAfter = stock
		return nil
	})
	return entry, err
}
