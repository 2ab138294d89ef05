package inventory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/platform/httpx"
	"github.com/primavera-events/primavera/internal/quotes"
)

// memoryStore implements the calculator ports over plain slices, filtering
// the way the SQL repositories do.
type memoryStore struct {
	events     []calendar.Event
	quotes     []quotes.Quote
	items      []catalog.Item
	eventErr   error
	quoteCalls int
}

func (m *memoryStore) ListEvents(_ context.Context, filter calendar.ListFilter) ([]calendar.Event, error) {
	if m.eventErr != nil {
		return nil, m.eventErr
	}
	var out []calendar.Event
	for _, ev := range m.events {
		if ev.Date.Before(filter.From) || ev.Date.After(filter.To) {
			continue
		}
		if filter.Status != "" && ev.Status != filter.Status {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *memoryStore) ListByEvent(_ context.Context, eventID uuid.UUID, status quotes.Status) ([]quotes.Quote, error) {
	m.quoteCalls++
	var out []quotes.Quote
	for _, q := range m.quotes {
		if q.EventID == eventID && q.Status == status {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) ListStockTracked(context.Context) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, item := range m.items {
		if item.Stock != nil && *item.Stock > 0 {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryStore) addItem(name string, stock *int) catalog.Item {
	item := catalog.Item{ID: uuid.New(), Name: name, Unit: "pieza", Stock: stock}
	m.items = append(m.items, item)
	return item
}

func (m *memoryStore) book(at time.Time, status calendar.Status, lines map[uuid.UUID]int) calendar.Event {
	ev := calendar.Event{ID: uuid.New(), Name: "evento", Date: at, Status: status}
	m.events = append(m.events, ev)
	m.addQuote(ev, quotes.StatusAccepted, at.Add(-time.Hour), lines)
	return ev
}

func (m *memoryStore) addQuote(ev calendar.Event, status quotes.Status, created time.Time, lines map[uuid.UUID]int) {
	q := quotes.Quote{ID: uuid.New(), EventID: ev.ID, Status: status, CreatedAt: created}
	for id, qty := range lines {
		q.Items = append(q.Items, quotes.Item{CatalogItemID: id, Quantity: qty})
	}
	m.quotes = append(m.quotes, q)
}

type observerStub struct{ reserved, unavailable int }

func (o *observerStub) ObserveAvailability(reserved, unavailable int) {
	o.reserved, o.unavailable = reserved, unavailable
}

var mexico = func() *time.Location {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		return time.FixedZone("CST", -6*3600)
	}
	return loc
}()

func intPtr(v int) *int { return &v }

func newCalculator(store *memoryStore, logger *slog.Logger, obs Observer) *Calculator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewCalculator(store, store, store, mexico, logger, obs)
}

func byName(t *testing.T, result []ItemAvailability, name string) ItemAvailability {
	t.Helper()
	for _, entry := range result {
		if entry.Name == name {
			return entry
		}
	}
	t.Fatalf("item %q not in result", name)
	return ItemAvailability{}
}

func at(day, hour, minute, second int) time.Time {
	return time.Date(2024, 6, day, hour, minute, second, 0, mexico)
}

func TestNoConfirmedEventsLeavesStockAvailable(t *testing.T) {
	store := &memoryStore{}
	chair := store.addItem("Silla Tiffany", intPtr(200))
	store.book(at(15, 18, 0, 0), calendar.StatusDraft, map[uuid.UUID]int{chair.ID: 50})
	store.book(at(15, 19, 0, 0), calendar.StatusCancelled, map[uuid.UUID]int{chair.ID: 50})

	result, err := newCalculator(store, nil, nil).ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, ItemAvailability{ID: chair.ID, Name: "Silla Tiffany", Unit: "pieza", Stock: 200, Reserved: 0, Available: 200, Status: StatusAvailable}, result[0])
}

func TestSillaTiffanyScenario(t *testing.T) {
	store := &memoryStore{}
	chair := store.addItem("Silla Tiffany", intPtr(200))
	store.book(at(15, 14, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 50})
	store.book(at(15, 20, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 30})
	calc := newCalculator(store, nil, nil)

	result, err := calc.ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	entry := byName(t, result, "Silla Tiffany")
	assert.Equal(t, 80, entry.Reserved)
	assert.Equal(t, 120, entry.Available)
	assert.Equal(t, StatusAvailable, entry.Status)

	store.book(at(15, 21, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 100})
	result, err = calc.ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	entry = byName(t, result, "Silla Tiffany")
	assert.Equal(t, 20, entry.Available)
	assert.Equal(t, StatusAvailable, entry.Status)

	store.book(at(15, 22, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 25})
	result, err = calc.ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	entry = byName(t, result, "Silla Tiffany")
	assert.Equal(t, 205, entry.Reserved)
	assert.Equal(t, -5, entry.Available)
	assert.Equal(t, StatusUnavailable, entry.Status)
}

func TestReservationsAreAdditiveAcrossEvents(t *testing.T) {
	store := &memoryStore{}
	table := store.addItem("Mesa redonda", intPtr(10))
	store.book(at(15, 13, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{table.ID: 3})
	store.book(at(15, 19, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{table.ID: 2})

	result, err := newCalculator(store, nil, nil).ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	entry := byName(t, result, "Mesa redonda")
	assert.Equal(t, 5, entry.Reserved)
	assert.Equal(t, 5, entry.Available)
	assert.Equal(t, entry.Stock-entry.Reserved, entry.Available)
}

func TestExactlyDepletedIsUnavailable(t *testing.T) {
	store := &memoryStore{}
	table := store.addItem("Mesa redonda", intPtr(10))
	store.book(at(15, 13, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{table.ID: 10})

	result, err := newCalculator(store, nil, nil).ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	entry := byName(t, result, "Mesa redonda")
	assert.Equal(t, 0, entry.Available)
	assert.Equal(t, StatusUnavailable, entry.Status)
}

func TestUntrackedItemsNeverAppear(t *testing.T) {
	store := &memoryStore{}
	dj := store.addItem("DJ", intPtr(0))
	planner := store.addItem("Coordinador", nil)
	chair := store.addItem("Silla Tiffany", intPtr(200))
	store.book(at(15, 18, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{dj.ID: 1, planner.ID: 1, chair.ID: 10})

	result, err := newCalculator(store, nil, nil).ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Silla Tiffany", result[0].Name)
}

func TestDayBoundaries(t *testing.T) {
	store := &memoryStore{}
	chair := store.addItem("Silla Tiffany", intPtr(200))
	store.book(at(15, 23, 59, 59), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 7})
	store.book(at(16, 0, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 11})
	store.book(at(15, 0, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 1})
	calc := newCalculator(store, nil, nil)

	result, err := calc.ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, 8, byName(t, result, "Silla Tiffany").Reserved)

	result, err = calc.ForDay(context.Background(), "2024-06-16")
	require.NoError(t, err)
	assert.Equal(t, 11, byName(t, result, "Silla Tiffany").Reserved)
}

func TestOnlyFirstAcceptedQuoteCounts(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	store := &memoryStore{}
	chair := store.addItem("Silla Tiffany", intPtr(200))
	ev := store.book(at(15, 18, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 40})
	store.addQuote(ev, quotes.StatusAccepted, at(15, 18, 0, 0), map[uuid.UUID]int{chair.ID: 90})
	store.addQuote(ev, quotes.StatusDraft, at(14, 0, 0, 0), map[uuid.UUID]int{chair.ID: 500})

	result, err := newCalculator(store, logger, nil).ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, 40, byName(t, result, "Silla Tiffany").Reserved)
	assert.Contains(t, logs.String(), "several accepted quotes")
}

func TestConfirmedEventWithoutAcceptedQuoteReservesNothing(t *testing.T) {
	store := &memoryStore{}
	chair := store.addItem("Silla Tiffany", intPtr(200))
	ev := calendar.Event{ID: uuid.New(), Date: at(15, 12, 0, 0), Status: calendar.StatusConfirmed}
	store.events = append(store.events, ev)
	store.addQuote(ev, quotes.StatusSent, at(1, 0, 0, 0), map[uuid.UUID]int{chair.ID: 30})

	result, err := newCalculator(store, nil, nil).ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, 200, byName(t, result, "Silla Tiffany").Available)
}

func TestObserverReceivesCounts(t *testing.T) {
	store := &memoryStore{}
	chair := store.addItem("Silla Tiffany", intPtr(10))
	store.addItem("Mantel", intPtr(50))
	store.book(at(15, 18, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 12})
	obs := &observerStub{}

	_, err := newCalculator(store, nil, obs).ForDay(context.Background(), "2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, 1, obs.reserved)
	assert.Equal(t, 1, obs.unavailable)
}

func TestInvalidDateFailsBeforeQuerying(t *testing.T) {
	store := &memoryStore{eventErr: errors.New("must not be called")}
	calc := newCalculator(store, nil, nil)

	for _, value := range []string{"", "15-06-2024", "2024-02-30", "tomorrow"} {
		_, err := calc.ForDay(context.Background(), value)
		require.ErrorIs(t, err, ErrInvalidDate, value)
		require.ErrorIs(t, err, httpx.ErrValidation, value)
	}
	assert.Zero(t, store.quoteCalls)
}

func TestAvailabilityEndpoint(t *testing.T) {
	store := &memoryStore{}
	chair := store.addItem("Silla Tiffany", intPtr(200))
	store.book(at(15, 18, 0, 0), calendar.StatusConfirmed, map[uuid.UUID]int{chair.ID: 50})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, newCalculator(store, logger, nil), nil)
	r := chi.NewRouter()
	r.Route("/api/inventory", h.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/inventory/availability?date=2024-06-15", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":"`+chair.ID.String()+`","name":"Silla Tiffany","unit":"pieza","stock":200,"reserved":50,"available":150,"status":"AVAILABLE"}]`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/inventory/availability", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	store.eventErr = errors.New("connection reset by peer")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/inventory/availability?date=2024-06-15", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection reset")
}
