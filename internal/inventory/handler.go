package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Handler exposes inventory endpoints.
type Handler struct {
	logger     *slog.Logger
	calculator *Calculator
	service    *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, calculator *Calculator, service *Service) *Handler {
	return &Handler{logger: logger, calculator: calculator, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/availability", h.handleAvailability)
	r.Post("/maintenance", h.handleMaintenance)
	r.Get("/alerts", h.handleAlerts)
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	items, err := h.calculator.ForDay(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	var in MaintenanceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	entry, err := h.service.LogMaintenance(r.Context(), r.Header.Get("Idempotency-Key"), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Alerts(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alerts)
}
