package calendar

import (
	"context"
	"errors"
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

	"github.com/primavera-events/primavera/internal/notify"
	"github.com/primavera-events/primavera/internal/platform/httpx"
	"github.com/primavera-events/primavera/internal/shared"
)

type memoryRepo struct {
	mu      sync.Mutex
	events  map[uuid.UUID]Event
	filters []ListFilter
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{events: map[uuid.UUID]Event{}}
}

func (m *memoryRepo) ListEvents(_ context.Context, filter ListFilter) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)
	out := []Event{}
	for _, ev := range m.events {
		if !filter.From.IsZero() && ev.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && ev.Date.After(filter.To) {
			continue
		}
		if filter.Status != "" && ev.Status != filter.Status {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *memoryRepo) GetEvent(_ context.Context, id uuid.UUID) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return ev, nil
}

func (m *memoryRepo) CreateEvent(_ context.Context, ev Event) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = uuid.New()
	m.events[ev.ID] = ev
	return ev, nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok || ev.Status != from {
		return ErrInvalidTransition
	}
	ev.Status = to
	m.events[id] = ev
	return nil
}

type published struct {
	topic   string
	payload any
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) PublishAsync(_ context.Context, topic string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{topic: topic, payload: payload})
}

type recordingAudit struct {
	logs []shared.AuditLog
	err  error
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

var mexico = func() *time.Location {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		return time.FixedZone("CST", -6*3600)
	}
	return loc
}()

func assertInstant(t *testing.T, want, got time.Time) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "want %s, got %s", want, got)
}

func newTestService(repo *memoryRepo, pub Publisher, audit AuditPort) *Service {
	return NewService(repo, audit, pub, mexico, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusDraft, StatusConfirmed, true},
		{StatusDraft, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusDraft, StatusCompleted, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusDraft, false},
		{StatusConfirmed, StatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestDayBounds(t *testing.T) {
	day, err := ParseDay("2024-06-15", mexico)
	require.NoError(t, err)
	start, end := DayBounds(day, mexico)
	assertInstant(t, time.Date(2024, 6, 15, 0, 0, 0, 0, mexico), start)
	assertInstant(t, time.Date(2024, 6, 15, 23, 59, 59, int(999*time.Millisecond), mexico), end)

	_, err = ParseDay("15/06/2024", mexico)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDefaultsToDraft(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	audit := &recordingAudit{}
	svc := newTestService(repo, pub, audit)

	ev, err := svc.Create(context.Background(), CreateEventInput{Name: "Boda Ana y Luis", Date: "2024-06-15", GuestCount: 150})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, ev.Status)
	assertInstant(t, time.Date(2024, 6, 15, 0, 0, 0, 0, mexico), ev.Date)
	assert.Empty(t, pub.sent)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "event.created", audit.logs[0].Action)

	_, err = svc.Create(context.Background(), CreateEventInput{Name: "XV", Date: "mañana"})
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.Create(context.Background(), CreateEventInput{Name: "XV", Date: "2024-06-15", Status: "BOOKED"})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestChangeStatusPublishesOnConfirm(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	audit := &recordingAudit{err: errors.New("audit down")}
	svc := newTestService(repo, pub, audit)

	ev, err := svc.Create(context.Background(), CreateEventInput{Name: "Boda", Date: "2024-06-15T18:00:00-06:00"})
	require.NoError(t, err)

	confirmed, err := svc.ChangeStatus(context.Background(), ev.ID, StatusConfirmed)
	require.NoError(t, err, "audit failures must not fail the transition")
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, notify.TopicEventConfirmed, pub.sent[0].topic)

	_, err = svc.ChangeStatus(context.Background(), ev.ID, StatusDraft)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, err, httpx.ErrConflict)

	_, err = svc.ChangeStatus(context.Background(), uuid.New(), StatusConfirmed)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestListBuildsInclusiveDayRange(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil, nil)

	_, err := svc.List(context.Background(), "2024-06-01", "2024-06-30")
	require.NoError(t, err)
	require.Len(t, repo.filters, 1)
	assertInstant(t, time.Date(2024, 6, 1, 0, 0, 0, 0, mexico), repo.filters[0].From)
	assertInstant(t, time.Date(2024, 6, 30, 23, 59, 59, int(999*time.Millisecond), mexico), repo.filters[0].To)

	_, err = svc.List(context.Background(), "2024-07-01", "2024-06-01")
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestHandlerStatusEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordingPublisher{}, nil)
	ev, err := svc.Create(context.Background(), CreateEventInput{Name: "Bautizo", Date: "2024-03-02"})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api/calendar", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes)

	req := httptest.NewRequest(http.MethodPatch, "/api/calendar/"+ev.ID.String()+"/status", strings.NewReader(`{"status":"CONFIRMED"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"status":"CONFIRMED"`)

	req = httptest.NewRequest(http.MethodPatch, "/api/calendar/"+ev.ID.String()+"/status", strings.NewReader(`{"status":"DRAFT"}`))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/calendar?from=junio", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/calendar", strings.NewReader(`{"date":"2024-03-02"}`))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
