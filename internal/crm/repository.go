package crm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primavera-events/primavera/internal/platform/db"
)

const emailIndex = "clients_email_key"

// Repository persists clients in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `id, first_name, last_name, email, phone, address, notes, type, created_at, updated_at`

// List returns clients, newest first.
func (r *Repository) List(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	clients := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Get loads one client.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrClientNotFound
	}
	return c, err
}

// Create inserts a client.
func (r *Repository) Create(ctx context.Context, in ClientInput) (Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `INSERT INTO clients (first_name, last_name, email, phone, address, notes, type)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+clientColumns,
		in.FirstName, in.LastName, in.Email, in.Phone, in.Address, in.Notes, string(in.Type)))
	if db.IsUniqueViolation(err, emailIndex) {
		return Client{}, ErrDuplicateEmail
	}
	return c, err
}

// Update replaces the editable fields of a client.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in ClientInput) (Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `UPDATE clients
SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, notes = $7, type = $8, updated_at = NOW()
WHERE id = $1 RETURNING `+clientColumns,
		id, in.FirstName, in.LastName, in.Email, in.Phone, in.Address, in.Notes, string(in.Type)))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Client{}, ErrClientNotFound
	case db.IsUniqueViolation(err, emailIndex):
		return Client{}, ErrDuplicateEmail
	}
	return c, err
}

func scanClient(row pgx.Row) (Client, error) {
	var (
		c   Client
		typ string
	)
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.Notes, &typ, &c.CreatedAt, &c.UpdatedAt)
	c.Type = ClientType(typ)
	return c, err
}
