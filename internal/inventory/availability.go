package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/quotes"
)

// EventStore lists events by date range and status.
type EventStore interface {
	ListEvents(ctx context.Context, filter calendar.ListFilter) ([]calendar.Event, error)
}

// QuoteStore lists the quotes of an event, with items, oldest first.
type QuoteStore interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID, status quotes.Status) ([]quotes.Quote, error)
}

// CatalogStore lists inventory-tracked catalog items.
type CatalogStore interface {
	ListStockTracked(ctx context.Context) ([]catalog.Item, error)
}

// Observer receives per-query availability figures.
type Observer interface {
	ObserveAvailability(reserved, unavailable int)
}

// Calculator derives per-day stock availability from confirmed bookings.
// It holds no state between calls and never caches results.
type Calculator struct {
	events   EventStore
	quotes   QuoteStore
	catalog  CatalogStore
	loc      *time.Location
	logger   *slog.Logger
	observer Observer
}

// NewCalculator builds Calculator. observer may be nil.
func NewCalculator(events EventStore, quotes QuoteStore, catalog CatalogStore, loc *time.Location, logger *slog.Logger, observer Observer) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{events: events, quotes: quotes, catalog: catalog, loc: loc, logger: logger, observer: observer}
}

// ForDay parses a YYYY-MM-DD value and computes availability for that day.
func (c *Calculator) ForDay(ctx context.Context, value string) ([]ItemAvailability, error) {
	if value == "" {
		return nil, ErrInvalidDate
	}
	day, err := calendar.ParseDay(value, c.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return c.ForDate(ctx, day)
}

// ForDate computes availability for the calendar day containing date.
//
// Only CONFIRMED events reserve stock, through their first ACCEPTED quote.
// Reservations are summed per catalog item across all events of the day.
// Items whose stock is null or zero are services and never appear in the
// result, even when a quote reserves them.
func (c *Calculator) ForDate(ctx context.Context, date time.Time) ([]ItemAvailability, error) {
	start, end := calendar.DayBounds(date, c.loc)

	events, err := c.events.ListEvents(ctx, calendar.ListFilter{From: start, To: end, Status: calendar.StatusConfirmed})
	if err != nil {
		return nil, fmt.Errorf("inventory: list confirmed events: %w", err)
	}

	reserved := make(map[uuid.UUID]int)
	for _, ev := range events {
		accepted, err := c.quotes.ListByEvent(ctx, ev.ID, quotes.StatusAccepted)
		if err != nil {
			return nil, fmt.Errorf("inventory: list accepted quotes for event %s: %w", ev.ID, err)
		}
		if len(accepted) == 0 {
			continue
		}
		if len(accepted) > 1 {
			c.logger.Warn("event has several accepted quotes; using the oldest",
				slog.String("event_id", ev.ID.String()),
				slog.Int("accepted", len(accepted)),
				slog.String("quote_id", accepted[0].ID.String()))
		}
		for _, line := range accepted[0].Items {
			reserved[line.CatalogItemID] += line.Quantity
		}
	}

	items, err := c.catalog.ListStockTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: list stock-tracked items: %w", err)
	}

	result := make([]ItemAvailability, 0, len(items))
	var touched, unavailable int
	for _, item := range items {
		stock := item.StockValue()
		if stock <= 0 {
			continue
		}
		used := reserved[item.ID]
		entry := ItemAvailability{
			ID:        item.ID,
			Name:      item.Name,
			Unit:      item.Unit,
			Stock:     stock,
			Reserved:  used,
			Available: stock - used,
			Status:    StatusAvailable,
		}
		if entry.Available <= 0 {
			entry.Status = StatusUnavailable
			unavailable++
		}
		if used > 0 {
			touched++
		}
		result = append(result, entry)
	}
	if c.observer != nil {
		c.observer.ObserveAvailability(touched, unavailable)
	}
	return result, nil
}
