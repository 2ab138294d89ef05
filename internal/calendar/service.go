package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/notify"
	"github.com/primavera-events/primavera/internal/platform/httpx"
	"github.com/primavera-events/primavera/internal/shared"
)

// RepositoryPort abstracts event persistence for the service.
type RepositoryPort interface {
	ListEvents(ctx context.Context, filter ListFilter) ([]Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (Event, error)
	CreateEvent(ctx context.Context, ev Event) (Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Publisher emits booking notifications without blocking the caller.
type Publisher interface {
	PublishAsync(ctx context.Context, topic string, payload any)
}

// Service coordinates calendar operations.
type Service struct {
	repo      RepositoryPort
	audit     AuditPort
	publisher Publisher
	loc       *time.Location
	logger    *slog.Logger
}

// NewService builds Service. audit and publisher are optional.
func NewService(repo RepositoryPort, audit AuditPort, publisher Publisher, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, publisher: publisher, loc: loc, logger: logger}
}

// List returns events whose date falls between the from and to days
// (YYYY-MM-DD, both optional, both inclusive).
func (s *Service) List(ctx context.Context, from, to string) ([]Event, error) {
	var filter ListFilter
	if from != "" {
		day, err := ParseDay(from, s.loc)
		if err != nil {
			return nil, err
		}
		filter.From, _ = DayBounds(day, s.loc)
	}
	if to != "" {
		day, err := ParseDay(to, s.loc)
		if err != nil {
			return nil, err
		}
		_, filter.To = DayBounds(day, s.loc)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, ErrInvalidRange
	}
	events, err := s.repo.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}
	return events, nil
}

// Get loads one event.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// Create validates and stores a new event.
func (s *Service) Create(ctx context.Context, in CreateEventInput) (Event, error) {
	if err := httpx.Validate(in); err != nil {
		return Event{}, err
	}
	date, err := parseEventDate(in.Date, s.loc)
	if err != nil {
		return Event{}, err
	}
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return Event{}, ErrInvalidStatus
	}
	ev, err := s.repo.CreateEvent(ctx, Event{
		ClientID:   in.ClientID,
		Name:       in.Name,
		Type:       in.Type,
		Date:       date,
		GuestCount: in.GuestCount,
		VenueID:    in.VenueID,
		Venue:      in.Venue,
		Status:     status,
	})
	if err != nil {
		return Event{}, err
	}
	s.record(ctx, "event.created", ev, map[string]any{"status": ev.Status})
	if ev.Status == StatusConfirmed {
		s.publish(ctx, ev)
	}
	return ev, nil
}

// ChangeStatus applies a status transition.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, next Status) (Event, error) {
	if !next.Valid() {
		return Event{}, ErrInvalidStatus
	}
	ev, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !ev.Status.CanTransition(next) {
		return Event{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, ev.Status, next)
	}
	if err := s.repo.UpdateStatus(ctx, id, ev.Status, next); err != nil {
		return Event{}, err
	}
	previous := ev.Status
	ev.Status = next
	s.record(ctx, "event.status_changed", ev, map[string]any{"from": previous, "to": next})
	if next == StatusConfirmed {
		s.publish(ctx, ev)
	}
	return ev, nil
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAsync(ctx, notify.TopicEventConfirmed, map[string]any{
		"event_id":    ev.ID,
		"name":        ev.Name,
		"date":        ev.Date.In(s.loc).Format(DayLayout),
		"guest_count": ev.GuestCount,
	})
}

func (s *Service) record(ctx context.Context, action string, ev Event, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "event", EntityID: ev.ID.String(), Meta: meta}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
