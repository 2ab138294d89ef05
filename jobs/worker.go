package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// WorkerConfig configures the task server and its cron scheduler.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Location    *time.Location
	Concurrency int
}

// Worker processes queued tasks and enqueues scheduled ones.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *slog.Logger
	scheduled int
}

// NewWorker builds a worker. Register handlers with Handle and cron entries
// with Schedule before calling Run.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	w := &Worker{
		server: asynq.NewServer(cfg.RedisOpts, asynq.Config{
			Concurrency: concurrency,
			Queues:      QueueWeights,
			ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", slog.String("type", task.Type()), slog.Any("error", err))
			}),
			Logger: newAsynqLogger(logger),
		}),
		scheduler: asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: loc}),
		mux:       asynq.NewServeMux(),
		logger:    logger,
	}
	w.mux.Use(w.logTask)
	return w
}

// Handle routes tasks of taskType to fn.
func (w *Worker) Handle(taskType string, fn asynq.HandlerFunc) {
	w.mux.HandleFunc(taskType, fn)
}

// Schedule enqueues task on every tick of the cron spec.
func (w *Worker) Schedule(spec string, task *asynq.Task, opts ...asynq.Option) error {
	if _, err := w.scheduler.Register(spec, task, opts...); err != nil {
		return fmt.Errorf("jobs: schedule %s %q: %w", task.Type(), spec, err)
	}
	w.scheduled++
	return nil
}

// Run processes tasks until ctx is cancelled, then drains in-flight work.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("jobs: start server: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	if w.scheduled > 0 {
		if err := w.scheduler.Start(); err != nil {
			w.server.Shutdown()
			return fmt.Errorf("jobs: start scheduler: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			w.scheduler.Shutdown()
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		w.server.Shutdown()
		return nil
	})
	w.logger.Info("worker started", slog.Int("cron_entries", w.scheduled))
	_ = g.Wait()
	return ctx.Err()
}

func (w *Worker) logTask(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		started := time.Now()
		err := next.ProcessTask(ctx, task)
		w.logger.Debug("task processed",
			slog.String("type", task.Type()),
			slog.Duration("duration", time.Since(started)),
			slog.Bool("ok", err == nil))
		return err
	})
}

// asynqLogger adapts slog to asynq's logger interface.
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) asynqLogger {
	return asynqLogger{logger: logger.With(slog.String("component", "asynq"))}
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.logger.Error(fmt.Sprint(args...)) }
