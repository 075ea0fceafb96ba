package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crowdlab/crowdlab/internal/authz"
	"github.com/crowdlab/crowdlab/internal/exporter"
	"github.com/crowdlab/crowdlab/internal/store"
	"github.com/crowdlab/crowdlab/internal/task"
)

// ExportHandler enqueues project data exports.
type ExportHandler struct {
	projects store.ProjectStore
	exporter *exporter.Exporter
	runner   *task.Runner
	policy   authz.ProjectPolicy
	logger   *slog.Logger
}

// NewExportHandler creates the export endpoint handler.
func NewExportHandler(projects store.ProjectStore, exp *exporter.Exporter, runner *task.Runner, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		projects: projects,
		exporter: exp,
		runner:   runner,
		logger:   logger.With(slog.String("component", "export_handler")),
	}
}

// Export serves GET /api/project/{id}/export?type=task|task_run. The
// export runs in the background; the response only acknowledges the
// enqueue.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	projectID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.MethodGet, "project", errNotFound("entity not found"))
		return
	}
	project, err := h.projects.GetByID(ctx, projectID)
	if err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}
	if err := h.policy.CanRead(ctx, actor, project); err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}

	kind := exporter.Kind(r.URL.Query().Get("type"))
	if !kind.Valid() {
		RespondError(w, r, http.MethodGet, "project", errBadRequest("type must be task or task_run"))
		return
	}

	job := task.NewExportJob(project, kind, h.exporter)
	if err := h.runner.Submit(job); err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}

	h.logger.Info("export enqueued",
		slog.String("project", project.ShortName),
		slog.String("type", string(kind)))
	respondJSON(w, r, http.StatusAccepted, map[string]string{
		"status":  "enqueued",
		"project": project.ShortName,
		"type":    string(kind),
	})
}
