package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crowdlab/crowdlab/internal/ephemeral"
	"github.com/crowdlab/crowdlab/internal/store"
)

// Scheduler hands out the next task of a project to a contributor. It is
// the only writer of task-requested markers: a contributor must pass
// through here before a run for the task is accepted.
type Scheduler struct {
	tasks     store.TaskStore
	projects  store.ProjectStore
	markers   *ephemeral.Store
	markerTTL time.Duration
}

// NewScheduler creates the scheduler endpoint handler.
func NewScheduler(tasks store.TaskStore, projects store.ProjectStore, markers *ephemeral.Store, markerTTL time.Duration) *Scheduler {
	return &Scheduler{
		tasks:     tasks,
		projects:  projects,
		markers:   markers,
		markerTTL: markerTTL,
	}
}

// NewTask serves GET /api/project/{id}/newtask: the lowest-id ongoing
// task the contributor has not answered yet. An empty object means the
// project has nothing left for them.
func (s *Scheduler) NewTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	projectID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.MethodGet, "project", errNotFound("entity not found"))
		return
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		RespondError(w, r, http.MethodGet, "project", err)
		return
	}

	contributor := store.Contributor{}
	contributorKey := ""
	if actor.IsAnonymous() {
		ip := ClientIP(r)
		contributor.UserIP = ip
		contributorKey = ip
	} else {
		contributor.UserID = actor.ID
		contributorKey = strconv.Itoa(actor.ID)
	}

	task, err := s.tasks.NextForContributor(ctx, projectID, contributor)
	if err != nil {
		if store.IsNotFound(err) {
			respondJSON(w, r, http.StatusOK, struct{}{})
			return
		}
		RespondError(w, r, http.MethodGet, "task", err)
		return
	}

	s.markers.MarkRequested(contributorKey, task.ID, s.markerTTL)
	respondJSON(w, r, http.StatusOK, task)
}
