package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/platform/httpx"
	"github.com/primavera-events/primavera/internal/shared"
)

const idempotencyModule = "inventory.maintenance"

// MaintenanceStore persists maintenance entries.
type MaintenanceStore interface {
	RecordMaintenance(ctx context.Context, in MaintenanceInput) (MaintenanceLog, error)
}

// LowStockReader lists tracked items at or below a threshold.
type LowStockReader interface {
	ListLowStock(ctx context.Context, threshold int) ([]catalog.Item, error)
}

// IdempotencyPort deduplicates retried writes.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates maintenance and stock alerts.
type Service struct {
	store       MaintenanceStore
	lowStock    LowStockReader
	idempotency IdempotencyPort
	audit       AuditPort
	threshold   int
	logger      *slog.Logger
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	LowStockThreshold int
}

// NewService builds Service. idempotency and audit are optional.
func NewService(store MaintenanceStore, lowStock LowStockReader, idem IdempotencyPort, audit AuditPort, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, lowStock: lowStock, idempotency: idem, audit: audit, threshold: cfg.LowStockThreshold, logger: logger}
}

// LogMaintenance records a maintenance entry. Loss decrements stock,
// Replacement increments it and Repair only logs. A non-empty key makes
// retries of the same request fail with shared.ErrIdempotencyConflict.
func (s *Service) LogMaintenance(ctx context.Context, key string, in MaintenanceInput) (MaintenanceLog, error) {
	if err := httpx.Validate(in); err != nil {
		return MaintenanceLog{}, err
	}
	insertedKey := false
	if key != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			return MaintenanceLog{}, err
		}
		insertedKey = true
	}
	entry, err := s.store.RecordMaintenance(ctx, in)
	if err != nil {
		if insertedKey {
			if delErr := s.idempotency.Delete(ctx, key, idempotencyModule); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return MaintenanceLog{}, err
	}
	if s.audit != nil {
		meta := map[string]any{"type": entry.Type, "quantity": entry.Quantity, "stock_after": entry.StockAfter}
		if err := s.audit.Record(ctx, shared.AuditLog{Action: "inventory.maintenance", Entity: "catalog_item", EntityID: entry.ItemID.String(), Meta: meta}); err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
	return entry, nil
}

// Alerts lists tracked items with 0 < stock <= threshold, lowest first.
func (s *Service) Alerts(ctx context.Context) ([]LowStockAlert, error) {
	items, err := s.lowStock.ListLowStock(ctx, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("inventory: list low stock: %w", err)
	}
	alerts := make([]LowStockAlert, 0, len(items))
	for _, item := range items {
		if !item.Tracked() || item.StockValue() > s.threshold {
			continue
		}
		alerts = append(alerts, LowStockAlert{ID: item.ID, Name: item.Name, Unit: item.Unit, Stock: item.StockValue(), Threshold: s.threshold})
	}
	return alerts, nil
}

// Threshold returns the configured low-stock threshold.
func (s *Service) Threshold() int {
	return s.threshold
}
