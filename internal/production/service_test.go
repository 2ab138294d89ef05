package production

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

type memoryRepo struct {
	layouts   map[uuid.UUID]Layout
	timelines map[uuid.UUID]*Timeline
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{layouts: map[uuid.UUID]Layout{}, timelines: map[uuid.UUID]*Timeline{}}
}

func (m *memoryRepo) GetLayout(_ context.Context, eventID uuid.UUID) (Layout, bool, error) {
	l, ok := m.layouts[eventID]
	return l, ok, nil
}

func (m *memoryRepo) UpsertLayout(_ context.Context, in LayoutInput) (Layout, error) {
	l, ok := m.layouts[in.EventID]
	if !ok {
		l = Layout{ID: uuid.New(), EventID: in.EventID, Name: in.Name}
	}
	l.Data = in.Data
	m.layouts[in.EventID] = l
	return l, nil
}

func (m *memoryRepo) GetTimeline(_ context.Context, eventID uuid.UUID) (Timeline, bool, error) {
	t, ok := m.timelines[eventID]
	if !ok {
		return Timeline{}, false, nil
	}
	return *t, true, nil
}

func (m *memoryRepo) AppendItem(_ context.Context, in TimelineItemInput) (TimelineItem, error) {
	t, ok := m.timelines[in.EventID]
	if !ok {
		t = &Timeline{ID: uuid.New(), EventID: in.EventID, Items: []TimelineItem{}}
		m.timelines[in.EventID] = t
	}
	item := TimelineItem{ID: uuid.New(), TimelineID: t.ID, Time: in.Time, Description: in.Description, Order: len(t.Items) + 1}
	t.Items = append(t.Items, item)
	return item, nil
}

func (m *memoryRepo) DeleteItem(_ context.Context, id uuid.UUID) error {
	for _, t := range m.timelines {
		for i, it := range t.Items {
			if it.ID == id {
				t.Items = append(t.Items[:i], t.Items[i+1:]...)
				return nil
			}
		}
	}
	return ErrItemNotFound
}

func TestSaveLayoutDefaultsNameAndKeepsIt(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	eventID := uuid.New()

	l, err := svc.SaveLayout(ctx, LayoutInput{EventID: eventID, Data: json.RawMessage(`{"objects":[{"type":"table","x":120,"y":80}]}`)})
	require.NoError(t, err)
	assert.Equal(t, DefaultLayoutName, l.Name)

	l, err = svc.SaveLayout(ctx, LayoutInput{EventID: eventID, Name: "Jardín", Data: json.RawMessage(`{"objects":[]}`)})
	require.NoError(t, err)
	assert.Equal(t, DefaultLayoutName, l.Name)
	assert.JSONEq(t, `{"objects":[]}`, string(l.Data))
	assert.Len(t, repo.layouts, 1)
}

func TestSaveLayoutRejectsScalarData(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.SaveLayout(context.Background(), LayoutInput{EventID: uuid.New(), Data: json.RawMessage(`42`)})
	require.ErrorIs(t, err, ErrInvalidLayoutData)

	_, err = svc.SaveLayout(context.Background(), LayoutInput{Data: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTimelineAppendsInOrder(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	eventID := uuid.New()

	empty, err := svc.Timeline(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.NotNil(t, empty.Items)

	first, err := svc.AddItem(ctx, TimelineItemInput{EventID: eventID, Time: "18:00", Description: "Recepción"})
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, TimelineItemInput{EventID: eventID, Time: "19:30", Description: "Cena"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)
	assert.Equal(t, first.TimelineID, second.TimelineID)

	require.NoError(t, svc.RemoveItem(ctx, first.ID))
	assert.ErrorIs(t, svc.RemoveItem(ctx, first.ID), httpx.ErrNotFound)

	tl, err := svc.Timeline(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, tl.Items, 1)
	assert.Equal(t, "Cena", tl.Items[0].Description)
}

func TestProductionEndpoints(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/api/production", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(newMemoryRepo())).MountRoutes)
	eventID := uuid.NewString()

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rr
	}

	rr := serve(http.MethodGet, "/api/production/layout/"+eventID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":null}`, rr.Body.String())

	rr = serve(http.MethodPost, "/api/production/layout", `{"event_id":"`+eventID+`","data":{"objects":[]}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = serve(http.MethodGet, "/api/production/layout/"+eventID, "")
	assert.Contains(t, rr.Body.String(), DefaultLayoutName)

	rr = serve(http.MethodGet, "/api/production/timeline/"+eventID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"items":[]`)

	rr = serve(http.MethodPost, "/api/production/timeline/item", `{"event_id":"`+eventID+`","time":"20:00","description":"Vals"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var item TimelineItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))

	rr = serve(http.MethodDelete, "/api/production/timeline/item/"+item.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, serve(http.MethodGet, "/api/production/layout/not-a-uuid", "").Code)
}
