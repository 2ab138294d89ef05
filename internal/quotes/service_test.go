package quotes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/notify"
	"github.com/primavera-events/primavera/internal/platform/httpx"
	"github.com/primavera-events/primavera/report"
)

type memoryRepo struct {
	mu     sync.Mutex
	quotes map[uuid.UUID]Quote
	seq    int
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{quotes: map[uuid.UUID]Quote{}} }

func (m *memoryRepo) ListByEvent(_ context.Context, eventID uuid.UUID, status Status) ([]Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Quote{}
	for _, q := range m.quotes {
		if q.EventID == eventID && (status == "" || q.Status == status) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return Quote{}, ErrQuoteNotFound
	}
	return q, nil
}

func (m *memoryRepo) Create(_ context.Context, q Quote) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	q.ID = uuid.New()
	q.CreatedAt = time.Date(2024, 1, 1, 0, 0, m.seq, 0, time.UTC)
	for i := range q.Items {
		q.Items[i].ID = uuid.New()
		q.Items[i].QuoteID = q.ID
	}
	m.quotes[q.ID] = q
	return q, nil
}

func (m *memoryRepo) HasAccepted(_ context.Context, eventID, exclude uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.quotes {
		if q.EventID == eventID && q.ID != exclude && q.Status == StatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok || q.Status != from {
		return ErrInvalidTransition
	}
	q.Status = to
	m.quotes[id] = q
	return nil
}

type catalogStub map[uuid.UUID]catalog.Item

func (c catalogStub) ListItemsByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, id := range ids {
		if item, ok := c[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

type eventStub map[uuid.UUID]calendar.Event

func (e eventStub) GetEvent(_ context.Context, id uuid.UUID) (calendar.Event, error) {
	ev, ok := e[id]
	if !ok {
		return calendar.Event{}, calendar.ErrEventNotFound
	}
	return ev, nil
}

type rendererStub struct {
	html string
	err  error
}

func (r *rendererStub) RenderHTML(_ context.Context, html string) ([]byte, error) {
	r.html = html
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF"), nil
}

type publisherStub struct{ topics []string }

func (p *publisherStub) PublishAsync(_ context.Context, topic string, _ any) {
	p.topics = append(p.topics, topic)
}

type fixture struct {
	svc      *Service
	repo     *memoryRepo
	renderer *rendererStub
	pub      *publisherStub
	event    calendar.Event
	chair    catalog.Item
	dj       catalog.Item
}

func newFixture() *fixture {
	stock := 200
	chair := catalog.Item{ID: uuid.New(), Name: "Silla Tiffany", Unit: "pieza", Price: 60, Stock: &stock}
	dj := catalog.Item{ID: uuid.New(), Name: "DJ", Unit: "servicio", Price: 8500.5}
	event := calendar.Event{ID: uuid.New(), Name: "Boda Ana y Luis", Date: time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC), GuestCount: 150}
	f := &fixture{repo: newMemoryRepo(), renderer: &rendererStub{}, pub: &publisherStub{}, event: event, chair: chair, dj: dj}
	f.svc = NewService(Deps{
		Repo:      f.repo,
		Catalog:   catalogStub{chair.ID: chair, dj.ID: dj},
		Events:    eventStub{event.ID: event},
		Renderer:  f.renderer,
		Publisher: f.pub,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func (f *fixture) create(t *testing.T) Quote {
	t.Helper()
	q, err := f.svc.Create(context.Background(), CreateQuoteInput{
		EventID: f.event.ID,
		Items: []ItemInput{
			{CatalogItemID: f.chair.ID, Quantity: 150},
			{CatalogItemID: f.dj.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return q
}

func TestCreateSnapshotsPrices(t *testing.T) {
	f := newFixture()
	q := f.create(t)

	assert.Equal(t, StatusDraft, q.Status)
	require.Len(t, q.Items, 2)
	assert.Equal(t, 60.0, q.Items[0].UnitPrice)
	assert.Equal(t, 9000.0, q.Items[0].Total())
	assert.Equal(t, 17500.5, q.Subtotal)
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateQuoteInput{EventID: f.event.ID})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = f.svc.Create(ctx, CreateQuoteInput{EventID: f.event.ID, Items: []ItemInput{{CatalogItemID: f.chair.ID, Quantity: 0}}})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = f.svc.Create(ctx, CreateQuoteInput{EventID: f.event.ID, Items: []ItemInput{{CatalogItemID: uuid.New(), Quantity: 1}}})
	require.ErrorIs(t, err, ErrUnknownCatalogItem)

	_, err = f.svc.Create(ctx, CreateQuoteInput{EventID: uuid.New(), Items: []ItemInput{{CatalogItemID: f.chair.ID, Quantity: 1}}})
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestAcceptEnforcesSingleAcceptedQuote(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first := f.create(t)
	second := f.create(t)

	_, err := f.svc.Send(ctx, first.ID)
	require.NoError(t, err)
	accepted, err := f.svc.Accept(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
	assert.Equal(t, []string{notify.TopicQuoteAccepted}, f.pub.topics)

	_, err = f.svc.Accept(ctx, second.ID)
	require.ErrorIs(t, err, ErrAlreadyAccepted)
	require.ErrorIs(t, err, httpx.ErrConflict)

	rejected, err := f.svc.Reject(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)

	_, err = f.svc.Send(ctx, first.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRenderPDF(t *testing.T) {
	f := newFixture()
	q := f.create(t)

	pdf, err := f.svc.RenderPDF(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf))
	assert.Contains(t, f.renderer.html, "Boda Ana y Luis")
	assert.Contains(t, f.renderer.html, "15/06/2024")

	_, err = f.svc.RenderDraftPDF(context.Background(), DraftPDFInput{EventName: "XV Sofía", Date: "2024-13-01", Items: []ItemInput{{CatalogItemID: f.chair.ID, Quantity: 1}}})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestHandlerRoutes(t *testing.T) {
	f := newFixture()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc)
	r := chi.NewRouter()
	r.Route("/api/quotes", h.MountRoutes)
	r.Route("/api/calendar", h.MountEventRoutes)

	body := `{"event_id":"` + f.event.ID.String() + `","items":[{"catalog_item_id":"` + f.chair.ID.String() + `","quantity":20}]}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var id uuid.UUID
	for k := range f.repo.quotes {
		id = k
	}
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/quotes/"+id.String()+"/accept", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"status":"ACCEPTED"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/calendar/"+f.event.ID.String()+"/quotes", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), id.String())

	f.renderer.err = report.ErrRenderFailed
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/quotes/"+id.String()+"/pdf", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	f.renderer.err = nil
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/quotes/pdf", strings.NewReader(`{"event_name":"XV","items":[{"catalog_item_id":"`+f.dj.ID.String()+`","quantity":1}]}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
}

// racingRepo reports no accepted sibling on the pre-check, then loses the
// race on the partial unique index as a concurrent acceptance commits first.
type racingRepo struct {
	*memoryRepo
}

func (racingRepo) HasAccepted(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func (racingRepo) UpdateStatus(context.Context, uuid.UUID, Status, Status) error {
	return ErrAlreadyAccepted
}

func TestAcceptLosingRaceReportsConflict(t *testing.T) {
	f := newFixture()
	q := f.create(t)
	svc := NewService(Deps{
		Repo:      racingRepo{f.repo},
		Catalog:   catalogStub{f.chair.ID: f.chair},
		Events:    eventStub{f.event.ID: f.event},
		Renderer:  f.renderer,
		Publisher: f.pub,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := svc.Accept(context.Background(), q.ID)
	require.ErrorIs(t, err, ErrAlreadyAccepted)
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Empty(t, f.pub.topics)

	r := chi.NewRouter()
	r.Route("/api/quotes", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/quotes/"+q.ID.String()+"/accept", nil))
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	stored, err := f.repo.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
}
