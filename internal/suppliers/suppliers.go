// Package suppliers keeps the vendor directory used by expenses.
package suppliers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Supplier is a vendor of goods or services.
type Supplier struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    *string   `json:"category,omitempty"`
	ContactName *string   `json:"contact_name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Terms       *string   `json:"terms,omitempty"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupplierInput describes a new supplier.
type SupplierInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Category    *string `json:"category"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=40"`
	Terms       *string `json:"terms"`
}

// RatingInput carries a 0..5 rating.
type RatingInput struct {
	Rating *float64 `json:"rating" validate:"required,gte=0,lte=5"`
}

// ErrSupplierNotFound indicates the supplier does not exist.
var ErrSupplierNotFound = fmt.Errorf("suppliers: supplier %w", httpx.ErrNotFound)

// Store abstracts supplier persistence.
type Store interface {
	List(ctx context.Context) ([]Supplier, error)
	Create(ctx context.Context, in SupplierInput) (Supplier, error)
	SetRating(ctx context.Context, id uuid.UUID, rating float64) (Supplier, error)
}

// Repository persists suppliers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const supplierColumns = `id, name, category, contact_name, email, phone, terms, rating, created_at`

// List returns suppliers ordered by name.
func (r *Repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a supplier.
func (r *Repository) Create(ctx context.Context, in SupplierInput) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, category, contact_name, email, phone, terms)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+supplierColumns, in.Name, in.Category, in.ContactName, in.Email, in.Phone, in.Terms))
}

// SetRating updates the rating of a supplier.
func (r *Repository) SetRating(ctx context.Context, id uuid.UUID, rating float64) (Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `UPDATE suppliers SET rating = $2 WHERE id = $1 RETURNING `+supplierColumns, id, rating))
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrSupplierNotFound
	}
	return s, err
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.ContactName, &s.Email, &s.Phone, &s.Terms, &s.Rating, &s.CreatedAt)
	return s, err
}

// Handler exposes supplier endpoints.
type Handler struct {
	logger *slog.Logger
	store  Store
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers /api/suppliers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Put("/{id}/rating", h.handleRating)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in SupplierInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	s, err := h.store.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

func (h *Handler) handleRating(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	var in RatingInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	// Ratings are stored with one decimal.
	rating := math.Round(*in.Rating*10) / 10
	s, err := h.store.SetRating(r.Context(), id, rating)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
