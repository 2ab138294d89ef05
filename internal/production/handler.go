package production

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Handler exposes production endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/layout/{eventId}", h.handleLayout)
	r.Post("/layout", h.handleSaveLayout)
	r.Get("/timeline/{eventId}", h.handleTimeline)
	r.Post("/timeline/item", h.handleAddItem)
	r.Delete("/timeline/item/{id}", h.handleDeleteItem)
}

func (h *Handler) handleLayout(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpx.URLParamUUID(r, "eventId")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	layout, ok, err := h.service.Layout(r.Context(), eventID)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	if !ok {
		httpx.JSON(w, http.StatusOK, map[string]any{"data": nil})
		return
	}
	httpx.JSON(w, http.StatusOK, layout)
}

func (h *Handler) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	var in LayoutInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	layout, err := h.service.SaveLayout(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, layout)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpx.URLParamUUID(r, "eventId")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	t, err := h.service.Timeline(r.Context(), eventID)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var in TimelineItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	item, err := h.service.AddItem(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	if err := h.service.RemoveItem(r.Context(), id); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
