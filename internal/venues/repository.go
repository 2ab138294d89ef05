package venues

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists venues in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const venueColumns = `id, name, type, address, city, capacity, description, hourly_rate, working_hours,
services, restrictions, package_options, created_at, updated_at`

// List returns venues ordered by name.
func (r *Repository) List(ctx context.Context) ([]Venue, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Venue{}
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get returns one venue.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Venue, error) {
	v, err := scanVenue(r.pool.QueryRow(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Venue{}, ErrVenueNotFound
	}
	return v, err
}

// Create inserts a venue.
func (r *Repository) Create(ctx context.Context, in VenueInput) (Venue, error) {
	v, err := scanVenue(r.pool.QueryRow(ctx, `INSERT INTO venues
(name, type, address, city, capacity, description, hourly_rate, working_hours, services, restrictions, package_options)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING `+venueColumns,
		in.Name, in.Type, in.Address, in.City, in.Capacity, in.Description, in.HourlyRate, in.WorkingHours,
		in.Services, in.Restrictions, in.Packages))
	return v, mapWriteErr(err)
}

// Update replaces every editable field of a venue.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in VenueInput) (Venue, error) {
	v, err := scanVenue(r.pool.QueryRow(ctx, `UPDATE venues SET
name = $2, type = $3, address = $4, city = $5, capacity = $6, description = $7, hourly_rate = $8,
working_hours = $9, services = $10, restrictions = $11, package_options = $12, updated_at = NOW()
WHERE id = $1 RETURNING `+venueColumns,
		id, in.Name, in.Type, in.Address, in.City, in.Capacity, in.Description, in.HourlyRate, in.WorkingHours,
		in.Services, in.Restrictions, in.Packages))
	if errors.Is(err, pgx.ErrNoRows) {
		return Venue{}, ErrVenueNotFound
	}
	return v, mapWriteErr(err)
}

// Delete removes a venue. Linked events keep the venue name as free text
// before the foreign key is cleared.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE events e SET venue = COALESCE(e.venue, v.name)
FROM venues v WHERE v.id = e.venue_id AND e.venue_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM venues WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrVenueNotFound
		}
		return nil
	})
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateName
	}
	return err
}

func scanVenue(row pgx.Row) (Venue, error) {
	var v Venue
	err := row.Scan(&v.ID, &v.Name, &v.Type, &v.Address, &v.City, &v.Capacity, &v.Description, &v.HourlyRate,
		&v.WorkingHours, &v.Services, &v.Restrictions, &v.Packages, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}
