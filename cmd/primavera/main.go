package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/primavera-events/primavera/cmd/primavera/cli"
	"github.com/primavera-events/primavera/internal/analytics"
	"github.com/primavera-events/primavera/internal/app"
	"github.com/primavera-events/primavera/internal/calendar"
	"github.com/primavera-events/primavera/internal/catalog"
	"github.com/primavera-events/primavera/internal/catering"
	"github.com/primavera-events/primavera/internal/crm"
	"github.com/primavera-events/primavera/internal/finance"
	"github.com/primavera-events/primavera/internal/inventory"
	"github.com/primavera-events/primavera/internal/notify"
	"github.com/primavera-events/primavera/internal/observability"
	"github.com/primavera-events/primavera/internal/platform/cache"
	"github.com/primavera-events/primavera/internal/platform/db"
	"github.com/primavera-events/primavera/internal/production"
	"github.com/primavera-events/primavera/internal/quotes"
	"github.com/primavera-events/primavera/internal/shared"
	"github.com/primavera-events/primavera/internal/staff"
	"github.com/primavera-events/primavera/internal/suppliers"
	"github.com/primavera-events/primavera/internal/venues"
	"github.com/primavera-events/primavera/jobs"
	"github.com/primavera-events/primavera/migrations"
	"github.com/primavera-events/primavera/report"
)

const usage = `usage: primavera [command]

commands:
  serve                 run the HTTP API (default)
  migrate               apply embedded SQL migrations
  jobs trigger <type>   enqueue a background job
  jobs stats            print queue depths
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "jobs":
		err = runJobs(ctx, cfg, args[1:])
	default:
		_, _ = fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(cmd, slog.Any("error", err))
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, Timezone: cfg.AppTimezone})
	if err != nil {
		return err
	}
	defer pool.Close()
	applied, err := db.Migrate(ctx, pool, migrations.Files)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", slog.Any("files", applied))
	return nil
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) error {
	if len(args) == 0 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	queueOpt, err := cache.QueueOpt(cfg.RedisAddr)
	if err != nil {
		return err
	}
	c := cli.NewJobsCLI(queueOpt)
	defer func() { _ = c.Close() }()
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("jobs trigger: task type required")
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return nil
	case "stats":
		stats, err := c.InspectQueues()
		if err != nil {
			return err
		}
		stats.Print(os.Stdout)
		return nil
	default:
		return fmt.Errorf("jobs: unknown subcommand %q", args[0])
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, Timezone: cfg.AppTimezone})
	if err != nil {
		return err
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if redisClient == nil {
		return err
	}
	if err != nil {
		logger.Warn("redis unavailable, analytics served uncached", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	loc := cfg.Location()
	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	publisher := notify.NewPublisher(cfg.AMQPURL, logger)
	if !publisher.Enabled() {
		logger.Info("AMQP_URL not set, domain events are not published")
	}
	pdfClient := report.NewClient(cfg.GotenbergURL)
	pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
	if err := pdfClient.Ping(pingCtx); err != nil {
		logger.Warn("gotenberg unreachable, quote PDFs will fail", slog.Any("error", err))
	}
	cancelPing()

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)

	calendarRepo := calendar.NewRepository(dbpool)
	calendarService := calendar.NewService(calendarRepo, auditLogger, publisher, loc, logger)

	quotesRepo := quotes.NewRepository(dbpool)
	quotesService := quotes.NewService(quotes.Deps{
		Repo:      quotesRepo,
		Catalog:   catalogRepo,
		Events:    calendarRepo,
		Renderer:  pdfClient,
		Audit:     auditLogger,
		Publisher: publisher,
		Location:  loc,
		Logger:    logger,
	})

	calculator := inventory.NewCalculator(calendarRepo, quotesRepo, catalogRepo, loc, logger, metrics)
	inventoryService := inventory.NewService(
		inventory.NewRepository(dbpool),
		catalogRepo,
		idempotencyStore,
		auditLogger,
		inventory.ServiceConfig{LowStockThreshold: cfg.LowStockThreshold},
		logger,
	)

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL, logger)
	analyticsService := analytics.NewService(analytics.NewRepository(dbpool), analyticsCache, loc, logger)

	queueOpt, err := cache.QueueOpt(cfg.RedisAddr)
	if err != nil {
		return err
	}
	inspector := asynq.NewInspector(queueOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		CatalogHandler:    catalog.NewHandler(logger, catalogService),
		CalendarHandler:   calendar.NewHandler(logger, calendarService),
		QuotesHandler:     quotes.NewHandler(logger, quotesService),
		InventoryHandler:  inventory.NewHandler(logger, calculator, inventoryService),
		CRMHandler:        crm.NewHandler(logger, crm.NewService(crm.NewRepository(dbpool), calendarRepo)),
		FinanceHandler:    finance.NewHandler(logger, finance.NewService(finance.NewRepository(dbpool), analyticsCache, logger)),
		SuppliersHandler:  suppliers.NewHandler(logger, suppliers.NewRepository(dbpool)),
		CateringHandler:   catering.NewHandler(logger, catering.NewService(catering.NewRepository(dbpool))),
		ProductionHandler: production.NewHandler(logger, production.NewService(production.NewRepository(dbpool))),
		VenuesHandler:     venues.NewHandler(logger, venues.NewService(venues.NewRepository(dbpool), calendarRepo, loc)),
		StaffHandler:      staff.NewHandler(logger, staff.NewService(staff.NewRepository(dbpool))),
		AnalyticsHandler:  analytics.NewHandler(logger, analyticsService),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := publisher.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications dropped", slog.Any("error", err))
	}
	return nil
}
