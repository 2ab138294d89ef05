package venues

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// RepositoryPort abstracts venue persistence.
type RepositoryPort interface {
	List(ctx context.Context) ([]Venue, error)
	Get(ctx context.Context, id uuid.UUID) (Venue, error)
	Create(ctx context.Context, in VenueInput) (Venue, error)
	Update(ctx context.Context, id uuid.UUID, in VenueInput) (Venue, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventLister reads events, narrowed by venue and date.
type EventLister interface {
	ListEvents(ctx context.Context, filter calendar.ListFilter) ([]calendar.Event, error)
}

// Service coordinates venues and their calendars.
type Service struct {
	repo   RepositoryPort
	events EventLister
	loc    *time.Location
	now    func() time.Time
}

// NewService builds Service. Month boundaries are evaluated in loc.
func NewService(repo RepositoryPort, events EventLister, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, events: events, loc: loc, now: time.Now}
}

// List returns every venue ordered by name.
func (s *Service) List(ctx context.Context) ([]Venue, error) {
	return s.repo.List(ctx)
}

// Get returns a venue with all of its events.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Detail, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	events, err := s.events.ListEvents(ctx, calendar.ListFilter{VenueID: &id})
	if err != nil {
		return Detail{}, err
	}
	return Detail{Venue: v, Events: summarize(events)}, nil
}

// Create validates and stores a venue.
func (s *Service) Create(ctx context.Context, in VenueInput) (Venue, error) {
	in, err := normalize(in)
	if err != nil {
		return Venue{}, err
	}
	return s.repo.Create(ctx, in)
}

// Update validates and replaces a venue.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in VenueInput) (Venue, error) {
	in, err := normalize(in)
	if err != nil {
		return Venue{}, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a venue.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Calendar returns the events held at a venue during one month. A zero month
// or year falls back to the current one.
func (s *Service) Calendar(ctx context.Context, id uuid.UUID, month, year int) ([]VenueEvent, error) {
	now := s.now().In(s.loc)
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return nil, ErrInvalidMonth
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	from, _ := calendar.DayBounds(first, s.loc)
	_, to := calendar.DayBounds(first.AddDate(0, 1, -1), s.loc)
	events, err := s.events.ListEvents(ctx, calendar.ListFilter{From: from, To: to, VenueID: &id})
	if err != nil {
		return nil, err
	}
	return summarize(events), nil
}

func normalize(in VenueInput) (VenueInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := httpx.Validate(in); err != nil {
		return VenueInput{}, err
	}
	if in.Services == nil {
		in.Services = []string{}
	}
	if in.Restrictions == nil {
		in.Restrictions = []string{}
	}
	if in.Packages == nil {
		in.Packages = []Package{}
	}
	for i := range in.Packages {
		if in.Packages[i].Includes == nil {
			in.Packages[i].Includes = []string{}
		}
	}
	return in, nil
}
