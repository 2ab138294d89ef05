package quotes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
	"github.com/primavera-events/primavera/internal/shared"
	"github.com/primavera-events/primavera/report"
)

// Handler exposes quote endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/quotes routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Post("/pdf", h.handleDraftPDF)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/pdf", h.handlePDF)
	r.Post("/{id}/send", h.handleTransition(h.service.Send))
	r.Post("/{id}/accept", h.handleTransition(h.service.Accept))
	r.Post("/{id}/reject", h.handleTransition(h.service.Reject))
}

// MountEventRoutes registers quote routes nested under /api/calendar.
func (h *Handler) MountEventRoutes(r chi.Router) {
	r.Get("/{id}/quotes", h.handleListForEvent)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateQuoteInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	q, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) handleListForEvent(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	quotes, err := h.service.ListForEvent(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotes)
}

func (h *Handler) handleTransition(apply func(context.Context, uuid.UUID) (Quote, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.URLParamUUID(r, "id")
		if err != nil {
			httpx.Fail(h.logger, w, r, err)
			return
		}
		q, err := apply(r.Context(), id)
		if err != nil {
			httpx.Fail(h.logger, w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, q)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	pdf, err := h.service.RenderPDF(r.Context(), id)
	h.writePDF(w, r, "cotizacion-"+id.String()[:8]+".pdf", pdf, err)
}

func (h *Handler) handleDraftPDF(w http.ResponseWriter, r *http.Request) {
	var in DraftPDFInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	pdf, err := h.service.RenderDraftPDF(r.Context(), in)
	h.writePDF(w, r, "cotizacion.pdf", pdf, err)
}

func (h *Handler) writePDF(w http.ResponseWriter, r *http.Request, filename string, pdf []byte, err error) {
	switch {
	case err == nil:
	case errors.Is(err, report.ErrRenderFailed), errors.Is(err, shared.ErrNotConfigured):
		h.logger.Error("render quote pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Unavailable", "")
		return
	default:
		httpx.Fail(h.logger, w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
