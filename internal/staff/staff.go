// Package staff keeps the roster of waiters, captains and crew hired per event.
package staff

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Member is a person available for event shifts.
type Member struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	DailyRate *float64  `json:"daily_rate,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberInput describes a new staff member.
type MemberInput struct {
	FirstName string   `json:"first_name" validate:"required,max=100"`
	LastName  string   `json:"last_name" validate:"required,max=100"`
	Role      string   `json:"role" validate:"required,max=60"`
	DailyRate *float64 `json:"daily_rate" validate:"omitempty,gte=0"`
	Phone     *string  `json:"phone" validate:"omitempty,max=40"`
	Email     *string  `json:"email" validate:"omitempty,email"`
}

// Store abstracts staff persistence.
type Store interface {
	List(ctx context.Context) ([]Member, error)
	Create(ctx context.Context, in MemberInput) (Member, error)
}

// Repository persists staff in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `id, first_name, last_name, role, daily_rate, phone, email, created_at`

// List returns staff ordered by last then first name.
func (r *Repository) List(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memberColumns+` FROM staff ORDER BY last_name, first_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create inserts a staff member.
func (r *Repository) Create(ctx context.Context, in MemberInput) (Member, error) {
	return scanMember(r.pool.QueryRow(ctx, `INSERT INTO staff (first_name, last_name, role, daily_rate, phone, email)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+memberColumns, in.FirstName, in.LastName, in.Role, in.DailyRate, in.Phone, in.Email))
}

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Role, &m.DailyRate, &m.Phone, &m.Email, &m.CreatedAt)
	return m, err
}

// Service validates and normalizes staff records.
type Service struct {
	store Store
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns every staff member.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	return s.store.List(ctx)
}

// Create validates in and stores it with trimmed names and role.
func (s *Service) Create(ctx context.Context, in MemberInput) (Member, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Role = strings.TrimSpace(in.Role)
	if err := httpx.Validate(in); err != nil {
		return Member{}, err
	}
	return s.store.Create(ctx, in)
}

// Handler exposes staff endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in MemberInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	m, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}
