package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/notify"
	"github.com/primavera-events/primavera/internal/platform/httpx"
	"github.com/primavera-events/primavera/internal/shared"
	"github.com/primavera-events/primavera/report"
)

// RepositoryPort abstracts quote persistence for the service.
type RepositoryPort interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID, status Status) ([]Quote, error)
	Get(ctx context.Context, id uuid.UUID) (Quote, error)
	Create(ctx context.Context, q Quote) (Quote, error)
	HasAccepted(ctx context.Context, eventID, exclude uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
}

// CatalogReader resolves catalog items for price snapshots.
type CatalogReader interface {
	ListItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Item, error)
}

// EventReader resolves the event a quote belongs to.
type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (calendar.Event, error)
}

// Renderer converts HTML into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Publisher emits booking notifications without blocking the caller.
type Publisher interface {
	PublishAsync(ctx context.Context, topic string, payload any)
}

// Deps groups the collaborators of Service. Renderer, Audit and Publisher
// are optional.
type Deps struct {
	Repo      RepositoryPort
	Catalog   CatalogReader
	Events    EventReader
	Renderer  Renderer
	Audit     AuditPort
	Publisher Publisher
	Location  *time.Location
	Logger    *slog.Logger
}

// Service coordinates quote operations.
type Service struct {
	Deps
	now func() time.Time
}

// NewService builds Service.
func NewService(deps Deps) *Service {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{Deps: deps, now: time.Now}
}

// Create prices the requested lines from the catalog and stores a DRAFT
// quote.
func (s *Service) Create(ctx context.Context, in CreateQuoteInput) (Quote, error) {
	if err := httpx.Validate(in); err != nil {
		return Quote{}, err
	}
	if _, err := s.Events.GetEvent(ctx, in.EventID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return Quote{}, ErrEventNotFound
		}
		return Quote{}, fmt.Errorf("quotes: load event: %w", err)
	}
	items, subtotal, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return Quote{}, err
	}
	q, err := s.Repo.Create(ctx, Quote{
		EventID:  in.EventID,
		Status:   StatusDraft,
		Subtotal: subtotal,
		Notes:    in.Notes,
		Items:    items,
	})
	if err != nil {
		return Quote{}, fmt.Errorf("quotes: create: %w", err)
	}
	s.record(ctx, "quote.created", q, map[string]any{"subtotal": q.Subtotal, "lines": len(q.Items)})
	return q, nil
}

// Get loads one quote.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Quote, error) {
	return s.Repo.Get(ctx, id)
}

// ListForEvent returns every quote of an event.
func (s *Service) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]Quote, error) {
	if _, err := s.Events.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.Repo.ListByEvent(ctx, eventID, "")
}

// Send marks a DRAFT quote as sent to the client.
func (s *Service) Send(ctx context.Context, id uuid.UUID) (Quote, error) {
	return s.transition(ctx, id, StatusSent)
}

// Reject marks a quote as rejected.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (Quote, error) {
	return s.transition(ctx, id, StatusRejected)
}

// Accept marks a quote as accepted. An event keeps at most one accepted
// quote; accepting a second one fails with ErrAlreadyAccepted.
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (Quote, error) {
	q, err := s.transition(ctx, id, StatusAccepted)
	if err != nil {
		return Quote{}, err
	}
	if s.Publisher != nil {
		s.Publisher.PublishAsync(ctx, notify.TopicQuoteAccepted, map[string]any{
			"quote_id": q.ID,
			"event_id": q.EventID,
			"subtotal": q.Subtotal,
		})
	}
	return q, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next Status) (Quote, error) {
	q, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if !q.Status.CanTransition(next) {
		return Quote{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, q.Status, next)
	}
	if next == StatusAccepted {
		taken, err := s.Repo.HasAccepted(ctx, q.EventID, q.ID)
		if err != nil {
			return Quote{}, fmt.Errorf("quotes: check accepted: %w", err)
		}
		if taken {
			return Quote{}, ErrAlreadyAccepted
		}
	}
	if err := s.Repo.UpdateStatus(ctx, id, q.Status, next); err != nil {
		return Quote{}, err
	}
	previous := q.Status
	q.Status = next
	s.record(ctx, "quote.status_changed", q, map[string]any{"from": previous, "to": next})
	return q, nil
}

// RenderPDF renders a stored quote.
func (s *Service) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	q, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ev, err := s.Events.GetEvent(ctx, q.EventID)
	if err != nil {
		return nil, fmt.Errorf("quotes: load event: %w", err)
	}
	doc := report.QuoteDocument{
		Reference:  q.ID.String()[:8],
		EventName:  ev.Name,
		EventDate:  ev.Date.In(s.Location).Format("02/01/2006"),
		GuestCount: ev.GuestCount,
		Status:     string(q.Status),
		Lines:      documentLines(q.Items),
		Subtotal:   q.Subtotal,
	}
	if q.Notes != nil {
		doc.Notes = *q.Notes
	}
	return s.render(ctx, doc)
}

// RenderDraftPDF prices an unsaved selection and renders it.
func (s *Service) RenderDraftPDF(ctx context.Context, in DraftPDFInput) ([]byte, error) {
	if err := httpx.Validate(in); err != nil {
		return nil, err
	}
	items, subtotal, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	doc := report.QuoteDocument{
		EventName:  in.EventName,
		GuestCount: in.GuestCount,
		Lines:      documentLines(items),
		Subtotal:   subtotal,
	}
	if in.Date != "" {
		day, err := calendar.ParseDay(in.Date, s.Location)
		if err != nil {
			return nil, err
		}
		doc.EventDate = day.Format("02/01/2006")
	}
	if in.Notes != nil {
		doc.Notes = *in.Notes
	}
	return s.render(ctx, doc)
}

func (s *Service) render(ctx context.Context, doc report.QuoteDocument) ([]byte, error) {
	if s.Renderer == nil {
		return nil, shared.ErrNotConfigured
	}
	doc.GeneratedAt = s.now().In(s.Location)
	html, err := report.RenderQuoteHTML(doc)
	if err != nil {
		return nil, err
	}
	return s.Renderer.RenderHTML(ctx, html)
}

// priceLines snapshots catalog prices for the requested lines. Repeated
// catalog ids are kept as separate lines.
func (s *Service) priceLines(ctx context.Context, lines []ItemInput) ([]Item, float64, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.CatalogItemID)
	}
	found, err := s.Catalog.ListItemsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("quotes: load catalog items: %w", err)
	}
	byID := make(map[uuid.UUID]catalog.Item, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}
	items := make([]Item, 0, len(lines))
	var subtotal float64
	for _, line := range lines {
		ci, ok := byID[line.CatalogItemID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrUnknownCatalogItem, line.CatalogItemID)
		}
		item := Item{
			CatalogItemID: ci.ID,
			Name:          ci.Name,
			Unit:          ci.Unit,
			Quantity:      line.Quantity,
			UnitPrice:     ci.Price,
			Notes:         line.Notes,
		}
		subtotal += item.Total()
		items = append(items, item)
	}
	return items, roundCents(subtotal), nil
}

func documentLines(items []Item) []report.QuoteLine {
	lines := make([]report.QuoteLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, report.QuoteLine{
			Name:      item.Name,
			Unit:      item.Unit,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total(),
		})
	}
	return lines
}

func (s *Service) record(ctx context.Context, action string, q Quote, meta map[string]any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, shared.AuditLog{Action: action, Entity: "quote", EntityID: q.ID.String(), Meta: meta}); err != nil {
		s.Logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
