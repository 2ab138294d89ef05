package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/primavera-events/primavera/internal/analytics"
	jobmetrics "github.com/primavera-events/primavera/internal/jobs"
)

// DashboardSource builds analytics dashboards through the cache.
type DashboardSource interface {
	Dashboard(ctx context.Context, year int) (analytics.Dashboard, error)
	CurrentYear() int
}

// DashboardWarmupJob pre-populates the dashboard cache.
type DashboardWarmupJob struct {
	Analytics DashboardSource
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(source DashboardSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardWarmupJob{Analytics: source, Logger: logger.With(slog.String("job", TaskAnalyticsDashboardWarmup)), Metrics: metrics}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Analytics == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("dashboard warmup: payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Year == 0 {
		payload.Year = j.Analytics.CurrentYear()
	}

	tracker := j.Metrics.Track(TaskAnalyticsDashboardWarmup)
	defer func() { err = tracker.End(err) }()

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if _, err := j.Analytics.Dashboard(ctx, payload.Year); err != nil {
		return err
	}
	j.Logger.Info("dashboard warmed", slog.Int("year", payload.Year), slog.Duration("duration", time.Since(started)))
	return nil
}
