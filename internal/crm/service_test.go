package crm

import (
	"context"
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

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/platform/httpx"
)

type memoryRepo struct {
	clients map[uuid.UUID]Client
}

func (m *memoryRepo) List(context.Context) ([]Client, error) {
	out := []Client{}
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return Client{}, ErrClientNotFound
	}
	return c, nil
}

func (m *memoryRepo) emailTaken(email *string, except uuid.UUID) bool {
	if email == nil {
		return false
	}
	for id, c := range m.clients {
		if id != except && c.Email != nil && *c.Email == *email {
			return true
		}
	}
	return false
}

func (m *memoryRepo) Create(_ context.Context, in ClientInput) (Client, error) {
	if m.emailTaken(in.Email, uuid.Nil) {
		return Client{}, ErrDuplicateEmail
	}
	c := Client{ID: uuid.New(), FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Type: in.Type}
	m.clients[c.ID] = c
	return c, nil
}

func (m *memoryRepo) Update(_ context.Context, id uuid.UUID, in ClientInput) (Client, error) {
	if _, ok := m.clients[id]; !ok {
		return Client{}, ErrClientNotFound
	}
	if m.emailTaken(in.Email, id) {
		return Client{}, ErrDuplicateEmail
	}
	c := Client{ID: id, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Type: in.Type}
	m.clients[id] = c
	return c, nil
}

type eventsStub map[uuid.UUID][]calendar.Event

func (e eventsStub) ListByClient(_ context.Context, id uuid.UUID) ([]calendar.Event, error) {
	return e[id], nil
}

func strPtr(s string) *string { return &s }

func TestCreateNormalizesAndDefaultsToLead(t *testing.T) {
	repo := &memoryRepo{clients: map[uuid.UUID]Client{}}
	svc := NewService(repo, eventsStub{})

	c, err := svc.Create(context.Background(), ClientInput{FirstName: "  Ana ", LastName: "López", Email: strPtr(" Ana@Example.COM ")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.FirstName)
	assert.Equal(t, TypeLead, c.Type)
	require.NotNil(t, c.Email)
	assert.Equal(t, "ana@example.com", *c.Email)

	_, err = svc.Create(context.Background(), ClientInput{FirstName: "Otra", Email: strPtr("ANA@example.com")})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.Create(context.Background(), ClientInput{FirstName: "Luis", Type: "FRIEND"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), ClientInput{FirstName: "Luis", Email: strPtr("no-es-correo")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	c, err = svc.Create(context.Background(), ClientInput{FirstName: "Sin correo", Email: strPtr("  ")})
	require.NoError(t, err)
	assert.Nil(t, c.Email)
}

func TestDetailIncludesEvents(t *testing.T) {
	repo := &memoryRepo{clients: map[uuid.UUID]Client{}}
	c, err := repo.Create(context.Background(), ClientInput{FirstName: "Ana", Type: TypeVIP})
	require.NoError(t, err)
	svc := NewService(repo, eventsStub{c.ID: {{ID: uuid.New(), Name: "Boda"}}})

	r := chi.NewRouter()
	r.Route("/api/clients", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/clients/"+c.ID.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"Boda"`)
	assert.Contains(t, rr.Body.String(), `"type":"VIP"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/clients/"+uuid.NewString(), strings.NewReader(`{"first_name":"X"}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/clients/"+c.ID.String(), strings.NewReader(`{"first_name":"Ana","type":"ACTIVE"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, TypeActive, repo.clients[c.ID].Type)
}
