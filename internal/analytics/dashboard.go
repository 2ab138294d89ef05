// Package analytics builds the back-office dashboard: monthly revenue, event
// mix, CRM pipeline and headline metrics.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// OtherType labels events without a type.
const OtherType = "Otros"

const (
	minYear = 2000
	maxYear = 2100
)

// MonthLabels are the Spanish month abbreviations of the revenue chart.
var MonthLabels = []string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// ErrInvalidYear indicates a year outside the supported range.
var ErrInvalidYear = fmt.Errorf("analytics: invalid year: %w", httpx.ErrValidation)

// Series is a labelled chart series.
type Series struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// PipelineStage counts clients of one type.
type PipelineStage struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Metrics are the headline numbers.
type Metrics struct {
	TotalRevenue   float64 `json:"total_revenue"`
	ActiveProjects int     `json:"active_projects"`
	PendingLeads   int     `json:"pending_leads"`
}

// Dashboard is the full analytics payload for one year.
type Dashboard struct {
	Year       int             `json:"year"`
	Revenue    Series          `json:"revenue"`
	EventStats Series          `json:"event_stats"`
	Pipeline   []PipelineStage `json:"pipeline"`
	Metrics    Metrics         `json:"metrics"`
}

// MonthAmount is the revenue of one calendar month (1..12).
type MonthAmount struct {
	Month  int
	Amount float64
}

// TypeCount is a count grouped by a type column. Name is empty for NULL.
type TypeCount struct {
	Name  string
	Count int
}

// Repository exposes the aggregate queries behind the dashboard.
type Repository interface {
	MonthlyRevenue(ctx context.Context, from, to time.Time, tz string) ([]MonthAmount, error)
	EventsByType(ctx context.Context) ([]TypeCount, error)
	ClientsByType(ctx context.Context) ([]TypeCount, error)
	ActiveProjects(ctx context.Context) (int, error)
	PendingLeads(ctx context.Context) (int, error)
}

// Service coordinates dashboard queries with the cache layer.
type Service struct {
	repo   Repository
	cache  *Cache
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group
}

// NewService wires a Repository with a Cache helper. cache may be nil.
func NewService(repo Repository, cache *Cache, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, loc: loc, logger: logger, now: time.Now}
}

// CurrentYear is the calendar year in the business location.
func (s *Service) CurrentYear() int {
	return s.now().In(s.loc).Year()
}

// Dashboard returns the dashboard for year, served from cache when possible.
// Concurrent misses for the same key share one load.
func (s *Service) Dashboard(ctx context.Context, year int) (Dashboard, error) {
	if year < minYear || year > maxYear {
		return Dashboard{}, ErrInvalidYear
	}
	key, err := s.cache.BuildKey(ctx, keyDashboard(year))
	if err != nil {
		s.logger.Warn("analytics cache unavailable", slog.Any("error", err))
		return s.build(ctx, year)
	}
	value, err, _ := s.group.Do(key, func() (any, error) {
		return cached(ctx, s.cache, key, func(ctx context.Context) (Dashboard, error) {
			return s.build(ctx, year)
		})
	})
	if err != nil {
		return Dashboard{}, err
	}
	return value.(Dashboard), nil
}

func (s *Service) build(ctx context.Context, year int) (Dashboard, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(1, 0, 0)

	var (
		revenue []MonthAmount
		events  []TypeCount
		clients []TypeCount
		active  int
		leads   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		revenue, err = s.repo.MonthlyRevenue(gctx, from, to, s.loc.String())
		return err
	})
	g.Go(func() (err error) {
		events, err = s.repo.EventsByType(gctx)
		return err
	})
	g.Go(func() (err error) {
		clients, err = s.repo.ClientsByType(gctx)
		return err
	})
	g.Go(func() (err error) {
		active, err = s.repo.ActiveProjects(gctx)
		return err
	})
	g.Go(func() (err error) {
		leads, err = s.repo.PendingLeads(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("analytics: dashboard %d: %w", year, err)
	}

	d := Dashboard{
		Year:       year,
		Revenue:    Series{Labels: MonthLabels, Data: make([]float64, 12)},
		EventStats: eventSeries(events),
		Pipeline:   make([]PipelineStage, 0, len(clients)),
		Metrics:    Metrics{ActiveProjects: active, PendingLeads: leads},
	}
	var total float64
	for _, m := range revenue {
		if m.Month < 1 || m.Month > 12 {
			continue
		}
		d.Revenue.Data[m.Month-1] += m.Amount
		total += m.Amount
	}
	for i, v := range d.Revenue.Data {
		d.Revenue.Data[i] = round2(v)
	}
	d.Metrics.TotalRevenue = round2(total)
	for _, c := range clients {
		d.Pipeline = append(d.Pipeline, PipelineStage{Name: c.Name, Value: c.Count})
	}
	return d, nil
}

// eventSeries folds untyped events into OtherType and orders by count.
func eventSeries(counts []TypeCount) Series {
	merged := make(map[string]int, len(counts))
	for _, c := range counts {
		name := c.Name
		if name == "" {
			name = OtherType
		}
		merged[name] += c.Count
	}
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if merged[names[i]] != merged[names[j]] {
			return merged[names[i]] > merged[names[j]]
		}
		return names[i] < names[j]
	})
	out := Series{Labels: names, Data: make([]float64, len(names))}
	for i, name := range names {
		out.Data[i] = float64(merged[name])
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
