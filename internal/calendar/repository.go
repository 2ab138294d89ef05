package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists events in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventSelect = `SELECT e.id, e.client_id, COALESCE(TRIM(c.first_name || ' ' || c.last_name), ''), e.name, e.type,
e.date, e.guest_count, e.venue_id, COALESCE(v.name, e.venue), e.status, e.created_at, e.updated_at
FROM events e
LEFT JOIN clients c ON c.id = e.client_id
LEFT JOIN venues v ON v.id = e.venue_id`

// ListEvents returns events matching filter ordered by date.
func (r *Repository) ListEvents(ctx context.Context, filter ListFilter) ([]Event, error) {
	var (
		conds []string
		args  []any
	)
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("e.date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("e.date <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if filter.VenueID != nil {
		args = append(args, *filter.VenueID)
		conds = append(conds, fmt.Sprintf("e.venue_id = $%d", len(args)))
	}
	sql := eventSelect
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY e.date, e.id"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListByClient returns the events booked by a client, newest first.
func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Event, error) {
	rows, err := r.pool.Query(ctx, eventSelect+` WHERE e.client_id = $1 ORDER BY e.date DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetEvent loads a single event.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (Event, error) {
	ev, err := scanEvent(r.pool.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	}
	return ev, err
}

const venueFK = "events_venue_id_fkey"

// CreateEvent inserts an event and returns it with its client name.
func (r *Repository) CreateEvent(ctx context.Context, ev Event) (Event, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO events (client_id, name, type, date, guest_count, venue_id, venue, status)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, (SELECT name FROM venues WHERE id = $6)), $8) RETURNING id`,
		ev.ClientID, ev.Name, ev.Type, ev.Date, ev.GuestCount, ev.VenueID, ev.Venue, string(ev.Status)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			if pgErr.ConstraintName == venueFK {
				return Event{}, ErrVenueNotFound
			}
			return Event{}, ErrClientNotFound
		}
		return Event{}, err
	}
	return r.GetEvent(ctx, id)
}

// UpdateStatus moves an event from one status to another. The update only
// applies while the row still holds from, so concurrent transitions cannot
// both succeed.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var (
		ev     Event
		status string
	)
	err := row.Scan(&ev.ID, &ev.ClientID, &ev.ClientName, &ev.Name, &ev.Type, &ev.Date, &ev.GuestCount, &ev.VenueID, &ev.Venue, &status, &ev.CreatedAt, &ev.UpdatedAt)
	ev.Status = Status(status)
	return ev, err
}
