package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/crowdlab/crowdlab/internal/authz"
	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/ephemeral"
	"github.com/crowdlab/crowdlab/internal/store"
)

// CompletionNotifier receives task-completion events so webhook delivery
// can happen off the request path.
type CompletionNotifier interface {
	TaskCompleted(ctx context.Context, project *domain.Project, task *domain.Task)
}

// TaskRunHandler serves the task run entity. Creation carries the bulk of
// the rules: the run's task must exist and belong to the run's project,
// the contributor must hold a task-requested marker, and attribution is
// assigned server-side from the authenticated user or the client IP.
type TaskRunHandler struct {
	tasks       store.TaskStore
	runs        store.TaskRunStore
	projects    store.ProjectStore
	policy      authz.TaskRunPolicy
	markers     *ephemeral.Store
	completions CompletionNotifier
	logger      *slog.Logger
	fields      map[string]bool
}

// NewTaskRunHandler creates the task run entity handler. completions may
// be nil when no webhook delivery is configured.
func NewTaskRunHandler(
	tasks store.TaskStore,
	runs store.TaskRunStore,
	projects store.ProjectStore,
	markers *ephemeral.Store,
	completions CompletionNotifier,
	logger *slog.Logger,
) *TaskRunHandler {
	return &TaskRunHandler{
		tasks:       tasks,
		runs:        runs,
		projects:    projects,
		policy:      authz.TaskRunPolicy{Projects: projects, TaskRuns: runs},
		markers:     markers,
		completions: completions,
		logger:      logger.With(slog.String("component", "taskrun_handler")),
		fields:      fieldSet(&domain.TaskRun{}),
	}
}

func (h *TaskRunHandler) Name() string { return "taskrun" }

func (h *TaskRunHandler) Fields() map[string]bool { return h.fields }

func (h *TaskRunHandler) Reserved() []string { return []string{"id", "created", "finish_time"} }

func (h *TaskRunHandler) Get(ctx context.Context, id int) (domain.Entity, error) {
	return h.runs.GetByID(ctx, id)
}

func (h *TaskRunHandler) Filter(ctx context.Context, q store.ListQuery) ([]domain.Entity, error) {
	runs, err := h.runs.Filter(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Entity, len(runs))
	for i, run := range runs {
		items[i] = run
	}
	return items, nil
}

func (h *TaskRunHandler) Decode(data []byte) (domain.Entity, error) {
	var run domain.TaskRun
	if err := strictUnmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Merge applies only the info payload; attribution and placement are
// immutable after creation.
func (h *TaskRunHandler) Merge(existing domain.Entity, data []byte) (domain.Entity, error) {
	merged := *existing.(*domain.TaskRun)
	var patch struct {
		ProjectID *int         `json:"project_id"`
		TaskID    *int         `json:"task_id"`
		Info      *domain.Info `json:"info"`
	}
	if err := strictUnmarshal(data, &patch); err != nil {
		return nil, err
	}
	if patch.Info != nil {
		merged.Info = *patch.Info
	}
	return &merged, nil
}

func (h *TaskRunHandler) Save(ctx context.Context, e domain.Entity) error {
	return h.runs.Create(ctx, e.(*domain.TaskRun))
}

func (h *TaskRunHandler) Update(ctx context.Context, e domain.Entity) error {
	return h.runs.Update(ctx, e.(*domain.TaskRun))
}

func (h *TaskRunHandler) Delete(ctx context.Context, e domain.Entity) error {
	return h.runs.Delete(ctx, e.EntityID())
}

func (h *TaskRunHandler) Authorize(ctx context.Context, actor *domain.User, action Action, e domain.Entity) error {
	var run *domain.TaskRun
	if e != nil {
		run = e.(*domain.TaskRun)
	}
	switch action {
	case ActionGet:
		return h.policy.CanRead(ctx, actor, run)
	case ActionPost:
		return h.policy.CanCreate(ctx, actor, run)
	case ActionPut:
		return h.policy.CanUpdate(ctx, actor, run)
	case ActionDelete:
		return h.policy.CanDelete(ctx, actor, run)
	}
	return authz.ErrForbidden
}

// BeforeSave validates the run's placement, assigns its attribution and
// checks the task-requested marker. Registered users consume the marker;
// anonymous markers are left to expire so a shared IP is not locked out
// by its own submission.
func (h *TaskRunHandler) BeforeSave(ctx context.Context, r *http.Request, actor *domain.User, e domain.Entity) error {
	run := e.(*domain.TaskRun)

	task, err := h.tasks.GetByID(ctx, run.TaskID)
	if err != nil {
		if store.IsNotFound(err) {
			return errForbidden("Invalid task_id")
		}
		return err
	}
	if task.ProjectID != run.ProjectID {
		return errForbidden("Invalid project_id")
	}

	if actor.IsAnonymous() {
		ip := ClientIP(r)
		run.UserID = nil
		run.UserIP = &ip
	} else {
		id := actor.ID
		run.UserID = &id
		run.UserIP = nil
	}

	consume := !actor.IsAnonymous()
	if !h.markers.CheckRequested(run.ContributorKey(), run.TaskID, consume) {
		return errForbidden("You must request a task first!")
	}
	return nil
}

// AfterSave flips the task to completed once enough runs are in and hands
// the event to the completion notifier. Failures here never fail the
// request that stored the run.
func (h *TaskRunHandler) AfterSave(ctx context.Context, e domain.Entity) {
	run := e.(*domain.TaskRun)

	count, err := h.runs.CountForTask(ctx, run.TaskID)
	if err != nil {
		h.logger.Error("counting task runs after submission", slog.Int("task_id", run.TaskID), slog.String("error", err.Error()))
		return
	}

	task, err := h.tasks.GetByID(ctx, run.TaskID)
	if err != nil {
		h.logger.Error("loading task after submission", slog.Int("task_id", run.TaskID), slog.String("error", err.Error()))
		return
	}
	if count < task.NAnswers || task.State == domain.TaskStateCompleted {
		return
	}

	task.State = domain.TaskStateCompleted
	if err := h.tasks.Update(ctx, task); err != nil {
		h.logger.Error("marking task completed", slog.Int("task_id", task.ID), slog.String("error", err.Error()))
		return
	}
	h.logger.Info("task completed", slog.Int("task_id", task.ID), slog.Int("n_answers", task.NAnswers))

	if h.completions == nil {
		return
	}
	project, err := h.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		h.logger.Error("loading project for completion event", slog.Int("project_id", task.ProjectID), slog.String("error", err.Error()))
		return
	}
	h.completions.TaskCompleted(ctx, project, task)
}

func (h *TaskRunHandler) Public(e domain.Entity) any { return e }

func (h *TaskRunHandler) Links(e domain.Entity) (string, []string) {
	run := e.(*domain.TaskRun)
	return selfLink("taskrun", run.ID), []string{
		selfLink("project", run.ProjectID),
		selfLink("task", run.TaskID),
	}
}
