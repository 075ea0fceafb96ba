package api

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/authz"
	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// TaskHandler serves the task entity.
type TaskHandler struct {
	noHooks
	selfPublic
	tasks  store.TaskStore
	policy authz.TaskPolicy
	fields map[string]bool
}

// NewTaskHandler creates the task entity handler. Task mutation rights
// derive from the owning project, so the policy needs the project store.
func NewTaskHandler(tasks store.TaskStore, projects store.ProjectStore) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		policy: authz.TaskPolicy{Projects: projects},
		fields: fieldSet(&domain.Task{}),
	}
}

func (h *TaskHandler) Name() string { return "task" }

func (h *TaskHandler) Fields() map[string]bool { return h.fields }

func (h *TaskHandler) Reserved() []string { return []string{"id", "created"} }

func (h *TaskHandler) Get(ctx context.Context, id int) (domain.Entity, error) {
	return h.tasks.GetByID(ctx, id)
}

func (h *TaskHandler) Filter(ctx context.Context, q store.ListQuery) ([]domain.Entity, error) {
	tasks, err := h.tasks.Filter(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Entity, len(tasks))
	for i, t := range tasks {
		items[i] = t
	}
	return items, nil
}

func (h *TaskHandler) Decode(data []byte) (domain.Entity, error) {
	var task domain.Task
	if err := strictUnmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (h *TaskHandler) Merge(existing domain.Entity, data []byte) (domain.Entity, error) {
	merged := *existing.(*domain.Task)
	if err := strictUnmarshal(data, &merged); err != nil {
		return nil, err
	}
	merged.ID = existing.EntityID()
	return &merged, nil
}

func (h *TaskHandler) Save(ctx context.Context, e domain.Entity) error {
	return h.tasks.Create(ctx, e.(*domain.Task))
}

func (h *TaskHandler) Update(ctx context.Context, e domain.Entity) error {
	return h.tasks.Update(ctx, e.(*domain.Task))
}

func (h *TaskHandler) Delete(ctx context.Context, e domain.Entity) error {
	return h.tasks.Delete(ctx, e.EntityID())
}

func (h *TaskHandler) Authorize(ctx context.Context, actor *domain.User, action Action, e domain.Entity) error {
	var task *domain.Task
	if e != nil {
		task = e.(*domain.Task)
	}
	switch action {
	case ActionGet:
		return h.policy.CanRead(ctx, actor, task)
	case ActionPost:
		return h.policy.CanCreate(ctx, actor, task)
	case ActionPut:
		return h.policy.CanUpdate(ctx, actor, task)
	case ActionDelete:
		return h.policy.CanDelete(ctx, actor, task)
	}
	return authz.ErrForbidden
}

func (h *TaskHandler) Links(e domain.Entity) (string, []string) {
	task := e.(*domain.Task)
	return selfLink("task", task.ID), []string{selfLink("project", task.ProjectID)}
}
