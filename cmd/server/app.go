package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/crowdlab/crowdlab/internal/cache"
	"github.com/crowdlab/crowdlab/internal/config"
	"github.com/crowdlab/crowdlab/internal/ephemeral"
	"github.com/crowdlab/crowdlab/internal/exporter"
	"github.com/crowdlab/crowdlab/internal/platform/postgres"
	"github.com/crowdlab/crowdlab/internal/service/auth"
	"github.com/crowdlab/crowdlab/internal/store"
	"github.com/crowdlab/crowdlab/internal/task"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	users      store.UserStore
	projects   store.ProjectStore
	categories store.CategoryStore
	tasks      store.TaskStore
	taskRuns   store.TaskRunStore

	markers     *ephemeral.Store
	statsCache  *cache.Projects
	authService *auth.Service
	hasher      *auth.BcryptHasher
	exporter    *exporter.Exporter
	runner      *task.Runner
	notifier    *task.Notifier
}

// newApplication opens the database, runs migrations and builds every
// service the router needs. The returned application owns the database
// handle and the job runner; release them with cleanup.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := runMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating jwt service: %w", err)
	}

	app := &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		users:      postgres.NewUserStore(db, logger),
		projects:   postgres.NewProjectStore(db, logger),
		categories: postgres.NewCategoryStore(db, logger),
		tasks:      postgres.NewTaskStore(db, logger),
		taskRuns:   postgres.NewTaskRunStore(db, logger),
		markers:    ephemeral.New(cfg.API.MarkerTTL()),
		hasher:     auth.NewBcryptHasher(0),
	}
	app.statsCache = cache.NewProjects(postgres.NewStatsStore(db, logger), cfg.API.CacheTTL())
	app.authService = auth.NewService(app.users, app.hasher, jwtService, logger)
	app.exporter = exporter.New(app.tasks, app.taskRuns, cfg.Export.Dir, logger)
	app.runner = task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Worker.Count,
		QueueSize:   cfg.Worker.QueueSize,
	}, logger)
	app.notifier = task.NewNotifier(app.runner, logger)

	app.runner.Start()
	return app, nil
}

// cleanup releases the application's resources in reverse wiring order.
func (app *application) cleanup() {
	app.runner.Stop()
	if err := app.db.Close(); err != nil {
		app.logger.Error("closing database", slog.String("error", err.Error()))
	}
}
