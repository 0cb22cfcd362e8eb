package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/finboard/fundsync/internal/config"
	"github.com/finboard/fundsync/internal/marketdata"
	"github.com/finboard/fundsync/internal/platform/postgres"
	"github.com/finboard/fundsync/internal/scheduler"
	"github.com/finboard/fundsync/internal/store"
	"github.com/finboard/fundsync/internal/task"
	"github.com/finboard/fundsync/internal/task/tasks"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	recordStore store.TaskRecordStore
	fundStore   store.FundStore

	// Task subsystem
	registry *task.Registry
	engine   *scheduler.Engine
	tracker  *task.ProgressTracker
	manager  *task.JobManager

	// Recurring submissions
	syncer *scheduler.PeriodicSyncer
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.recordStore = postgres.NewPostgresTaskRecordStore(db)
	app.fundStore = postgres.NewPostgresFundStore(db)

	provider := marketdata.NewHTTPProvider(cfg.Provider, logger)

	app.registry = task.NewRegistry(logger)
	app.engine = scheduler.New(logger)
	app.tracker = task.NewProgressTracker(app.recordStore, 0, logger)

	app.manager = task.NewJobManager(
		app.registry,
		app.recordStore,
		app.engine,
		app.tracker,
		task.ManagerConfig{
			DefaultTimeout: cfg.Scheduler.DefaultTimeout,
			MisfireGrace:   time.Duration(cfg.Scheduler.MisfireGraceSeconds) * time.Second,
			HistoryLimit:   cfg.Scheduler.HistoryLimit,
		},
		logger,
	)

	// Task types are registered after the manager exists so that fan-out
	// tasks can submit children through it.
	err := tasks.RegisterAll(app.registry, tasks.Deps{
		Provider:  provider,
		Funds:     app.fundStore,
		Submitter: app.manager,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register task types: %w", err)
	}

	if err := app.setupPeriodicSync(); err != nil {
		return nil, err
	}

	logger.Info("Application initialized successfully",
		"task_types", len(app.registry.AllTypes()))
	return app, nil
}

// setupPeriodicSync wires the recurring NAV list refresh, if configured.
func (app *application) setupPeriodicSync() error {
	spec := app.config.Scheduler.DailyNavSyncSpec
	if spec == "" {
		app.logger.Info("Periodic NAV sync disabled")
		return nil
	}

	app.syncer = scheduler.NewPeriodicSyncer(app.manager, app.logger)
	err := app.syncer.AddJob(spec, task.AddTaskRequest{
		Type: "sync_fund_page",
		Params: task.Params{
			"fund_type": tasks.FundTypeAll,
			"page":      1,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to schedule periodic NAV sync: %w", err)
	}

	app.logger.Info("Periodic NAV sync scheduled", "spec", spec)
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	if app.syncer != nil {
		app.syncer.Start()
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.syncer != nil {
		app.syncer.Stop()
	}

	// Stop the engine after the cron schedule so no new jobs arrive while
	// in-flight ones drain.
	app.engine.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("Error closing database connection", "error", err)
	}

	app.logger.Info("Application shutdown completed")
}
