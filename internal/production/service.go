package production

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/platform/httpx"
)

// RepositoryPort abstracts production persistence.
type RepositoryPort interface {
	GetLayout(ctx context.Context, eventID uuid.UUID) (Layout, bool, error)
	UpsertLayout(ctx context.Context, in LayoutInput) (Layout, error)
	GetTimeline(ctx context.Context, eventID uuid.UUID) (Timeline, bool, error)
	AppendItem(ctx context.Context, in TimelineItemInput) (TimelineItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// Service coordinates layouts and timelines.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Layout returns the saved layout of an event, if any.
func (s *Service) Layout(ctx context.Context, eventID uuid.UUID) (Layout, bool, error) {
	return s.repo.GetLayout(ctx, eventID)
}

// SaveLayout upserts the layout of an event.
func (s *Service) SaveLayout(ctx context.Context, in LayoutInput) (Layout, error) {
	if err := httpx.Validate(in); err != nil {
		return Layout{}, err
	}
	data := bytes.TrimSpace(in.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		in.Data = nil
	case (data[0] == '{' || data[0] == '[') && json.Valid(data):
		in.Data = data
	default:
		return Layout{}, ErrInvalidLayoutData
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = DefaultLayoutName
	}
	return s.repo.UpsertLayout(ctx, in)
}

// Timeline returns the timeline of an event. A missing timeline is empty.
func (s *Service) Timeline(ctx context.Context, eventID uuid.UUID) (Timeline, error) {
	t, ok, err := s.repo.GetTimeline(ctx, eventID)
	if err != nil {
		return Timeline{}, err
	}
	if !ok {
		return Timeline{EventID: eventID, Items: []TimelineItem{}}, nil
	}
	return t, nil
}

// AddItem appends an item to the timeline of an event.
func (s *Service) AddItem(ctx context.Context, in TimelineItemInput) (TimelineItem, error) {
	if err := httpx.Validate(in); err != nil {
		return TimelineItem{}, err
	}
	return s.repo.AppendItem(ctx, in)
}

// RemoveItem deletes a timeline item.
func (s *Service) RemoveItem(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteItem(ctx, id)
}
