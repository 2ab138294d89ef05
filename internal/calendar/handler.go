package calendar

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Handler exposes calendar endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers calendar routes. Routes nested under an event id
// (for example its quotes) are mounted by their owning packages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}/status", h.handleStatus)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.service.List(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, events)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	ev, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ev)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateEventInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	ev, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ev)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	var in StatusInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	ev, err := h.service.ChangeStatus(r.Context(), id, in.Status)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ev)
}
