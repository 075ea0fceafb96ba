package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/crowdlab/crowdlab/internal/api"
	apimiddleware "github.com/crowdlab/crowdlab/internal/api/middleware"
)

// setupRouter builds the application router with all middleware and
// routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.CORS())
	r.Use(apimiddleware.Authenticate(app.users, app.authService, app.logger))
	r.Use(apimiddleware.RateLimit(app.markers, app.config.API.RateLimit, app.config.API.RateWindow()))

	scheduler := api.NewScheduler(app.tasks, app.projects, app.markers, app.config.API.MarkerTTL())
	exportHandler := api.NewExportHandler(app.projects, app.exporter, app.runner, app.logger)
	statsHandler := api.NewStatsHandler(app.statsCache, app.projects)
	loginHandler := api.NewLoginHandler(app.authService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", loginHandler.Login)

		api.NewResource(api.NewProjectHandler(app.projects), app.logger).Mount(r, func(r chi.Router) {
			r.Get("/{id}/newtask", scheduler.NewTask)
			r.Get("/{id}/export", exportHandler.Export)
			r.Get("/{id}/stats", statsHandler.ProjectStats)
		})
		api.NewResource(api.NewCategoryHandler(app.categories), app.logger).Mount(r)
		api.NewResource(api.NewTaskHandler(app.tasks, app.projects), app.logger).Mount(r)
		api.NewResource(
			api.NewTaskRunHandler(app.tasks, app.taskRuns, app.projects, app.markers, app.notifier, app.logger),
			app.logger,
		).Mount(r)
		api.NewResource(api.NewUserHandler(app.users, app.hasher), app.logger).Mount(r)

		r.Get("/projects/featured", statsHandler.Featured)
		r.Get("/projects/draft", statsHandler.Draft)
		r.Get("/projects/top", statsHandler.Top)
		r.Get("/projects/category/{short_name}", statsHandler.Published)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("writing health check response", "error", err)
		}
	})

	return r
}
