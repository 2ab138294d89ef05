package catering

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// Handler exposes catering endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/catering routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ingredients", h.handleIngredients)
	r.Post("/ingredients", h.handleCreateIngredient)
	r.Get("/dishes", h.handleDishes)
	r.Post("/dishes", h.handleCreateDish)
	r.Get("/menus", h.handleMenus)
	r.Post("/menus", h.handleCreateMenu)
}

type dishView struct {
	Dish
	Margin float64 `json:"margin"`
}

func (h *Handler) handleIngredients(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Ingredients(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	var in IngredientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	out, err := h.service.CreateIngredient(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

func (h *Handler) handleDishes(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Dishes(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	views := make([]dishView, 0, len(list))
	for _, d := range list {
		views = append(views, dishView{Dish: d, Margin: d.Margin()})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreateDish(w http.ResponseWriter, r *http.Request) {
	var in DishInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	out, err := h.service.CreateDish(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dishView{Dish: out, Margin: out.Margin()})
}

func (h *Handler) handleMenus(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Menus(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreateMenu(w http.ResponseWriter, r *http.Request) {
	var in MenuInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	out, err := h.service.CreateMenu(r.Context(), in)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}
