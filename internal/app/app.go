// Package app wires configuration to adapters, use cases and lifecycle
// orchestration.
package app

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

	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewPipeline/internal/config"
	"ReviewPipeline/internal/infrastructure/coupang"
	"ReviewPipeline/internal/infrastructure/llm"
	"ReviewPipeline/internal/infrastructure/scheduler"
	"ReviewPipeline/internal/infrastructure/slack"
	"ReviewPipeline/internal/infrastructure/storage"
	"ReviewPipeline/internal/logging"
	"ReviewPipeline/internal/server"
	"ReviewPipeline/internal/usecase"
)

// Application owns the wired pipeline and its lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	admin     *usecase.Admin
	scheduler *usecase.Scheduler
	handler   http.Handler
}

// New connects the database, applies the schema, and wires every adapter
// into the use cases.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	pool, err := storage.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	items := storage.NewItems(pool)
	drafts := storage.NewDrafts(pool)
	queue := storage.NewRetryQueue(pool)
	settings := storage.NewSettings(pool)
	logs := storage.NewLogs(pool)

	// Claims that survived the previous process belong to attempts that
	// no longer exist.
	released, err := queue.ReleaseAbandoned(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if released > 0 {
		baseLogger.Info("released abandoned retry claims", "count", released)
	}

	source := coupang.NewClient(cfg.Coupang)
	model := llm.NewOpenAIClient(cfg.OpenAI)
	notifier := slack.NewNotifier(cfg.Slack.WebhookURL, cfg.Slack.Channel)

	generator := usecase.NewGenerator(usecase.GeneratorDeps{
		Items:    items,
		Drafts:   drafts,
		Queue:    queue,
		Settings: settings,
		Model:    model,
		Logs:     logs,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "generator"),
	})

	retries := usecase.NewRetryScheduler(usecase.RetrySchedulerDeps{
		Queue:       queue,
		Items:       items,
		Generator:   generator,
		Logs:        logs,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "retry"),
		BaseDelay:   cfg.Retry.BaseDelay(),
		MaxAttempts: cfg.Retry.MaxAttempts,
		DrainBatch:  cfg.Retry.DrainBatch,
		Workers:     cfg.Retry.Workers,
	})

	collector := usecase.NewCollector(usecase.CollectorDeps{
		Source:  source,
		Items:   items,
		Logs:    logs,
		Logger:  baseLogger.With("component", "collector"),
		Weights: cfg.Collection.WeightMap(),
		Sources: cfg.Collection.SourceMap(),
	})

	pipeline := usecase.NewPipeline(collector, retries,
		cfg.Collection.MaxItemsPerRun, baseLogger.With("component", "pipeline"))

	admin := usecase.NewAdmin(usecase.AdminDeps{
		Pipeline: pipeline,
		Retries:  retries,
		Drafts:   drafts,
		Items:    items,
		Logs:     logs,
		Settings: settings,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "admin"),
	})

	jobs := usecase.NewScheduler(
		scheduler.NewTickerScheduler(cfg.Scheduler.CollectInterval(), false),
		scheduler.NewTickerScheduler(cfg.Scheduler.DrainInterval(), false),
		pipeline, retries, baseLogger.With("component", "scheduler"))

	handler := server.New(server.Config{
		Core:       admin,
		AdminToken: cfg.Server.AdminToken,
		Logger:     baseLogger.With("component", "server"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pool:      pool,
		admin:     admin,
		scheduler: jobs,
		handler:   handler,
	}, nil
}

// Run starts the recurring jobs and the admin HTTP server, then blocks
// until the context is cancelled or an interrupt arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = a.scheduler.Stop(context.Background()) }()

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("admin server listening", "addr", a.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown admin server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server: %w", err)
	}
}

// CollectOnce triggers a single collection run and returns its summary.
func (a *Application) CollectOnce(ctx context.Context, maxItems int) (usecase.RunResult, error) {
	return a.admin.TriggerCollection(ctx, maxItems)
}

// Regenerate forces one generation attempt for the item.
func (a *Application) Regenerate(ctx context.Context, itemID string) error {
	return a.admin.ForceRegenerate(ctx, itemID)
}

// CancelRetries drops every pending retry entry.
func (a *Application) CancelRetries(ctx context.Context) (int64, error) {
	return a.admin.CancelRetries(ctx)
}

// Close releases the database pool.
func (a *Application) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
