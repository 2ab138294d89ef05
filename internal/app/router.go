package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/primavera-events/primavera/internal/analytics"
	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/catering"
	"github.com/primavera-events/primavera/internal/crm"
	"github.com/primavera-events/primavera/internal/finance"
	"github.com/primavera-events/primavera/internal/inventory"
	"github.com/primavera-events/primavera/internal/observability"
	"github.com/primavera-events/primavera/internal/production"
	"github.com/primavera-events/primavera/internal/quotes"
	"github.com/primavera-events/primavera/internal/staff"
	"github.com/primavera-events/primavera/internal/suppliers"
	"github.com/primavera-events/primavera/internal/venues"
	"github.com/primavera-events/primavera/jobs"
)

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers leave their routes unmounted.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	CatalogHandler    *catalog.Handler
	CalendarHandler   *calendar.Handler
	QuotesHandler     *quotes.Handler
	InventoryHandler  *inventory.Handler
	CRMHandler        *crm.Handler
	FinanceHandler    *finance.Handler
	SuppliersHandler  *suppliers.Handler
	CateringHandler   *catering.Handler
	ProductionHandler *production.Handler
	VenuesHandler     *venues.Handler
	StaffHandler      *staff.Handler
	AnalyticsHandler  *analytics.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Primavera defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config != nil && !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.CatalogHandler != nil {
			r.Route("/catalog", params.CatalogHandler.MountRoutes)
		}
		r.Route("/calendar", func(r chi.Router) {
			if params.CalendarHandler != nil {
				params.CalendarHandler.MountRoutes(r)
			}
			if params.QuotesHandler != nil {
				params.QuotesHandler.MountEventRoutes(r)
			}
		})
		if params.QuotesHandler != nil {
			r.Route("/quotes", params.QuotesHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.CRMHandler != nil {
			r.Route("/clients", params.CRMHandler.MountRoutes)
		}
		if params.FinanceHandler != nil {
			r.Route("/finance", params.FinanceHandler.MountRoutes)
		}
		if params.SuppliersHandler != nil {
			r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		}
		if params.CateringHandler != nil {
			r.Route("/catering", params.CateringHandler.MountRoutes)
		}
		if params.ProductionHandler != nil {
			r.Route("/production", params.ProductionHandler.MountRoutes)
		}
		if params.VenuesHandler != nil {
			r.Route("/venues", params.VenuesHandler.MountRoutes)
		}
		if params.StaffHandler != nil {
			r.Route("/staff", params.StaffHandler.MountRoutes)
		}
		if params.AnalyticsHandler != nil {
			r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
		}
	})

	return r
}
