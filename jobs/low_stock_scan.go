package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/primavera-events/primavera/internal/inventory"
	jobmetrics "github.com/primavera-events/primavera/internal/jobs"
)

// AlertSource lists items at or below the low-stock threshold.
type AlertSource interface {
	Alerts(ctx context.Context) ([]inventory.LowStockAlert, error)
}

// LowStockScanJob logs low-stock items and exports their count as a gauge.
type LowStockScanJob struct {
	Alerts  AlertSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(alerts AlertSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockScanJob{Alerts: alerts, Logger: logger.With(slog.String("job", TaskInventoryLowStockScan)), Metrics: metrics}
}

// Handle processes low-stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Alerts == nil {
		return errors.New("low stock scan: handler not configured")
	}
	tracker := j.Metrics.Track(TaskInventoryLowStockScan)
	defer func() { err = tracker.End(err) }()

	alerts, err := j.Alerts.Alerts(ctx)
	if err != nil {
		return err
	}
	j.Metrics.SetLowStock(len(alerts))
	for _, a := range alerts {
		j.Logger.Warn("low stock",
			slog.String("item_id", a.ID.String()),
			slog.String("name", a.Name),
			slog.Int("stock", a.Stock),
			slog.Int("threshold", a.Threshold))
	}
	j.Logger.Info("low stock scan completed", slog.Int("items", len(alerts)))
	return nil
}
