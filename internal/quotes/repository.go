package quotes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primavera-events/primavera/internal/platform/db"
)

const acceptedIndex = "quotes_one_accepted_per_event"

// Repository persists quotes in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const quoteColumns = `id, event_id, status, subtotal, notes, created_at, updated_at`

// ListByEvent returns the quotes of an event with their items, oldest first
// (created_at, id). An empty status matches every quote.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID, status Status) ([]Quote, error) {
	sql := `SELECT ` + quoteColumns + ` FROM quotes WHERE event_id = $1`
	args := []any{eventID}
	if status != "" {
		sql += ` AND status = $2`
		args = append(args, string(status))
	}
	sql += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	quotes := []Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		quotes = append(quotes, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return quotes, nil
	}

	ids := make([]uuid.UUID, len(quotes))
	index := make(map[uuid.UUID]int, len(quotes))
	for i, q := range quotes {
		ids[i] = q.ID
		index[q.ID] = i
	}
	items, err := r.listItems(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		i := index[item.QuoteID]
		quotes[i].Items = append(quotes[i].Items, item)
	}
	return quotes, nil
}

// Get loads a quote with its items.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Quote{}, ErrQuoteNotFound
	}
	if err != nil {
		return Quote{}, err
	}
	items, err := r.listItems(ctx, r.pool, []uuid.UUID{id})
	if err != nil {
		return Quote{}, err
	}
	q.Items = items
	return q, nil
}

// Create stores a quote and its items in one transaction.
func (r *Repository) Create(ctx context.Context, q Quote) (Quote, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO quotes (event_id, status, subtotal, notes)
VALUES ($1, $2, $3, $4) RETURNING `+quoteColumns, q.EventID, string(q.Status), q.Subtotal, q.Notes)
		created, err := scanQuote(row)
		if err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, item := range q.Items {
			batch.Queue(`INSERT INTO quote_items (quote_id, catalog_item_id, quantity, unit_price, notes)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, created.ID, item.CatalogItemID, item.Quantity, item.UnitPrice, item.Notes)
		}
		results := tx.SendBatch(ctx, batch)
		items := make([]Item, len(q.Items))
		for i, item := range q.Items {
			if err := results.QueryRow().Scan(&item.ID); err != nil {
				_ = results.Close()
				return err
			}
			item.QuoteID = created.ID
			items[i] = item
		}
		if err := results.Close(); err != nil {
			return err
		}
		created.Items = items
		q = created
		return nil
	})
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

// HasAccepted reports whether another quote of the event is ACCEPTED.
func (r *Repository) HasAccepted(ctx context.Context, eventID, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE event_id = $1 AND status = 'ACCEPTED' AND id <> $2)`, eventID, exclude).Scan(&exists)
	return exists, err
}

// UpdateStatus moves a quote from one status to another. A concurrent
// acceptance that trips the partial unique index reports ErrAlreadyAccepted.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quotes SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		if db.IsUniqueViolation(err, acceptedIndex) {
			return ErrAlreadyAccepted
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *Repository) listItems(ctx context.Context, q db.DBTX, quoteIDs []uuid.UUID) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT qi.id, qi.quote_id, qi.catalog_item_id, ci.name, ci.unit, qi.quantity, qi.unit_price, qi.notes
FROM quote_items qi
JOIN catalog_items ci ON ci.id = qi.catalog_item_id
WHERE qi.quote_id = ANY($1)
ORDER BY ci.name, qi.id`, quoteIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.QuoteID, &item.CatalogItemID, &item.Name, &item.Unit, &item.Quantity, &item.UnitPrice, &item.Notes); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanQuote(row pgx.Row) (Quote, error) {
	var (
		q      Quote
		status string
	)
	err := row.Scan(&q.ID, &q.EventID, &status, &q.Subtotal, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	q.Status = Status(status)
	q.Items = []Item{}
	return q, err
}
