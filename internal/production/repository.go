package production

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primavera-events/primavera/internal/platform/db"
)

// Repository persists layouts and timelines in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetLayout returns the layout of an event. ok is false when none is saved.
func (r *Repository) GetLayout(ctx context.Context, eventID uuid.UUID) (Layout, bool, error) {
	var l Layout
	err := r.pool.QueryRow(ctx, `SELECT id, event_id, name, data, updated_at FROM layouts WHERE event_id = $1`, eventID).
		Scan(&l.ID, &l.EventID, &l.Name, &l.Data, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Layout{}, false, nil
	}
	if err != nil {
		return Layout{}, false, err
	}
	return l, true, nil
}

// UpsertLayout creates the layout of an event or replaces its data. The name
// is only set on creation.
func (r *Repository) UpsertLayout(ctx context.Context, in LayoutInput) (Layout, error) {
	var l Layout
	err := r.pool.QueryRow(ctx, `INSERT INTO layouts (event_id, name, data) VALUES ($1, $2, $3)
ON CONFLICT (event_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
RETURNING id, event_id, name, data, updated_at`, in.EventID, in.Name, in.Data).
		Scan(&l.ID, &l.EventID, &l.Name, &l.Data, &l.UpdatedAt)
	if isForeignKeyViolation(err) {
		return Layout{}, ErrEventNotFound
	}
	return l, err
}

// GetTimeline returns the timeline of an event with items in order.
func (r *Repository) GetTimeline(ctx context.Context, eventID uuid.UUID) (Timeline, bool, error) {
	t := Timeline{EventID: eventID, Items: []TimelineItem{}}
	err := r.pool.QueryRow(ctx, `SELECT id FROM timelines WHERE event_id = $1`, eventID).Scan(&t.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Timeline{}, false, nil
	}
	if err != nil {
		return Timeline{}, false, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, timeline_id, time, description, sort_order
FROM timeline_items WHERE timeline_id = $1 ORDER BY sort_order, id`, t.ID)
	if err != nil {
		return Timeline{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var it TimelineItem
		if err := rows.Scan(&it.ID, &it.TimelineID, &it.Time, &it.Description, &it.Order); err != nil {
			return Timeline{}, false, err
		}
		t.Items = append(t.Items, it)
	}
	return t, true, rows.Err()
}

// AppendItem creates the timeline lazily and appends an item after the
// current last position.
func (r *Repository) AppendItem(ctx context.Context, in TimelineItemInput) (TimelineItem, error) {
	item := TimelineItem{Time: in.Time, Description: in.Description}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO timelines (event_id) VALUES ($1)
ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
RETURNING id`, in.EventID).Scan(&item.TimelineID); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `INSERT INTO timeline_items (timeline_id, time, description, sort_order)
SELECT $1, $2, $3, COUNT(*) + 1 FROM timeline_items WHERE timeline_id = $1
RETURNING id, sort_order`, item.TimelineID, in.Time, in.Description).Scan(&item.ID, &item.Order)
	})
	if isForeignKeyViolation(err) {
		return TimelineItem{}, ErrEventNotFound
	}
	return item, err
}

// DeleteItem removes a timeline item.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM timeline_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
