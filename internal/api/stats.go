package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crowdlab/crowdlab/internal/authz"
	"github.com/crowdlab/crowdlab/internal/cache"
	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// defaultTopN is how many projects the top listing returns when the
// caller does not say.
const defaultTopN = 4

// StatsHandler serves the cached project aggregates.
type StatsHandler struct {
	cache    *cache.Projects
	projects store.ProjectStore
	policy   authz.ProjectPolicy
}

// NewStatsHandler creates the aggregate endpoints handler.
func NewStatsHandler(c *cache.Projects, projects store.ProjectStore) *StatsHandler {
	return &StatsHandler{
		cache:    c,
		projects: projects,
	}
}

// ProjectStats serves GET /api/project/{id}/stats.
func (h *StatsHandler) ProjectStats(w http.ResponseWriter, r *http.Request) {
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

	stats, err := h.cache.Stats(ctx, projectID)
	if err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

// Featured serves GET /api/projects/featured.
func (h *StatsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	projects, err := h.cache.Featured(r.Context())
	if err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}
	respondJSON(w, r, http.StatusOK, projects)
}

// Published serves GET /api/projects/category/{short_name}.
func (h *StatsHandler) Published(w http.ResponseWriter, r *http.Request) {
	projects, err := h.cache.Published(r.Context(), chi.URLParam(r, "short_name"))
	if err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}
	respondJSON(w, r, http.StatusOK, projects)
}

// Draft serves GET /api/projects/draft. Unpublished work is visible to
// admins only.
func (h *StatsHandler) Draft(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if !actor.IsAdmin() {
		if actor.IsAnonymous() {
			RespondError(w, r, http.MethodGet, "project", authz.ErrUnauthorized)
		} else {
			RespondError(w, r, http.MethodGet, "project", authz.ErrForbidden)
		}
		return
	}

	projects, err := h.cache.Draft(r.Context())
	if err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}
	respondJSON(w, r, http.StatusOK, projects)
}

// rankView flattens a ranked project with its contribution counts.
type rankView struct {
	*domain.Project
	NTaskRuns  int `json:"n_task_runs"`
	Volunteers int `json:"volunteers"`
}

// Top serves GET /api/projects/top?n=N.
func (h *StatsHandler) Top(w http.ResponseWriter, r *http.Request) {
	n := defaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(w, r, http.MethodGet, "project", errValueError("n must be a positive integer"))
			return
		}
		n = parsed
	}

	ranks, err := h.cache.Top(r.Context(), n)
	if err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}

	out := make([]rankView, len(ranks))
	for i, rank := range ranks {
		out[i] = rankView{
			Project:    rank.Project,
			NTaskRuns:  rank.NTaskRuns,
			Volunteers: rank.Volunteers,
		}
	}
	respondJSON(w, r, http.StatusOK, out)
}
