package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/primavera-events/primavera/internal/analytics"
	"github.com/primavera-events/primavera/internal/app"
	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/inventory"
	jobmetrics "github.com/primavera-events/primavera/internal/jobs"
	"github.com/primavera-events/primavera/internal/platform/cache"
	"github.com/primavera-events/primavera/internal/platform/db"
	"github.com/primavera-events/primavera/internal/shared"
	"github.com/primavera-events/primavera/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, Timezone: cfg.AppTimezone})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if redisClient == nil {
		logger.Error("redis config", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := jobmetrics.NewMetrics(nil)
	loc := cfg.Location()

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL, logger)
	analyticsService := analytics.NewService(analytics.NewRepository(pool), analyticsCache, loc, logger)

	catalogRepo := catalog.NewRepository(pool)
	inventoryService := inventory.NewService(nil, catalogRepo, nil, nil,
		inventory.ServiceConfig{LowStockThreshold: cfg.LowStockThreshold}, logger)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	lowStockJob := jobs.NewLowStockScanJob(inventoryService, logger, metrics)
	warmupJob := jobs.NewDashboardWarmupJob(analyticsService, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(idempotencyStore, 0, logger, metrics)

	warmupTask, err := jobs.NewDashboardWarmupTask(0)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts, err := cache.QueueOpt(cfg.RedisAddr)
	if err != nil {
		logger.Error("redis config", slog.Any("error", err))
		os.Exit(1)
	}
	worker := jobs.NewWorker(jobs.WorkerConfig{RedisOpts: redisOpts, Logger: logger, Location: loc})
	worker.Handle(jobs.TaskInventoryLowStockScan, lowStockJob.Handle)
	worker.Handle(jobs.TaskAnalyticsDashboardWarmup, warmupJob.Handle)
	worker.Handle(jobs.TaskIdempotencyCleanup, cleanupJob.Handle)

	schedules := []struct {
		spec string
		task *asynq.Task
		opts []asynq.Option
	}{
		{"@hourly", jobs.NewLowStockScanTask(), []asynq.Option{asynq.MaxRetry(3)}},
		{"15 5 * * *", warmupTask, []asynq.Option{asynq.MaxRetry(3)}},
		{"30 3 * * *", jobs.NewIdempotencyCleanupTask(), []asynq.Option{asynq.MaxRetry(1)}},
	}
	for _, entry := range schedules {
		if err := worker.Schedule(entry.spec, entry.task, entry.opts...); err != nil {
			logger.Error("init worker", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Ledger writes bump the dashboard cache; re-warm once per minute at most.
	client := jobs.NewClient(redisOpts)
	defer func() { _ = client.Close() }()
	if err := analyticsCache.Subscribe(ctx, func(version int64) {
		task, err := jobs.NewDashboardWarmupTask(0)
		if err != nil {
			return
		}
		if _, err := client.Enqueue(ctx, task, time.Minute); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Warn("enqueue dashboard warmup", slog.Int64("version", version), slog.Any("error", err))
		}
	}); err != nil {
		logger.Warn("analytics bump subscription", slog.Any("error", err))
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
