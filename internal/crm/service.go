package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// RepositoryPort abstracts client persistence.
type RepositoryPort interface {
	List(ctx context.Context) ([]Client, error)
	Get(ctx context.Context, id uuid.UUID) (Client, error)
	Create(ctx context.Context, in ClientInput) (Client, error)
	Update(ctx context.Context, id uuid.UUID, in ClientInput) (Client, error)
}

// EventLister lists the events booked by a client.
type EventLister interface {
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]calendar.Event, error)
}

// Service coordinates client operations.
type Service struct {
	repo   RepositoryPort
	events EventLister
}

// NewService builds Service.
func NewService(repo RepositoryPort, events EventLister) *Service {
	return &Service{repo: repo, events: events}
}

// List returns every client, newest first.
func (s *Service) List(ctx context.Context) ([]Client, error) {
	clients, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("crm: list clients: %w", err)
	}
	return clients, nil
}

// Detail loads a client with its events.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (ClientDetail, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return ClientDetail{}, err
	}
	events, err := s.events.ListByClient(ctx, id)
	if err != nil {
		return ClientDetail{}, fmt.Errorf("crm: list client events: %w", err)
	}
	return ClientDetail{Client: c, Events: events}, nil
}

// Create stores a new client; type defaults to LEAD.
func (s *Service) Create(ctx context.Context, in ClientInput) (Client, error) {
	in, err := normalize(in)
	if err != nil {
		return Client{}, err
	}
	return s.repo.Create(ctx, in)
}

// Update replaces a client's editable fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in ClientInput) (Client, error) {
	in, err := normalize(in)
	if err != nil {
		return Client{}, err
	}
	return s.repo.Update(ctx, id, in)
}

func normalize(in ClientInput) (ClientInput, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			in.Email = nil
		} else {
			in.Email = &email
		}
	}
	if in.Type == "" {
		in.Type = TypeLead
	}
	if err := httpx.Validate(in); err != nil {
		return ClientInput{}, err
	}
	return in, nil
}
