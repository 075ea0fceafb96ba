package api

import (
	"context"
	"net/http"

	"github.com/crowdlab/crowdlab/internal/authz"
	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// ProjectHandler serves the project entity.
type ProjectHandler struct {
	selfPublic
	projects store.ProjectStore
	policy   authz.ProjectPolicy
	fields   map[string]bool
}

// NewProjectHandler creates the project entity handler.
func NewProjectHandler(projects store.ProjectStore) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		fields:   fieldSet(&domain.Project{}),
	}
}

func (h *ProjectHandler) Name() string { return "project" }

func (h *ProjectHandler) Fields() map[string]bool { return h.fields }

func (h *ProjectHandler) Reserved() []string { return []string{"id", "created", "updated"} }

func (h *ProjectHandler) Get(ctx context.Context, id int) (domain.Entity, error) {
	return h.projects.GetByID(ctx, id)
}

func (h *ProjectHandler) Filter(ctx context.Context, q store.ListQuery) ([]domain.Entity, error) {
	projects, err := h.projects.Filter(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Entity, len(projects))
	for i, p := range projects {
		items[i] = p
	}
	return items, nil
}

func (h *ProjectHandler) Decode(data []byte) (domain.Entity, error) {
	var project domain.Project
	if err := strictUnmarshal(data, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (h *ProjectHandler) Merge(existing domain.Entity, data []byte) (domain.Entity, error) {
	merged := *existing.(*domain.Project)
	if err := strictUnmarshal(data, &merged); err != nil {
		return nil, err
	}
	merged.ID = existing.EntityID()
	return &merged, nil
}

func (h *ProjectHandler) Save(ctx context.Context, e domain.Entity) error {
	return h.projects.Create(ctx, e.(*domain.Project))
}

func (h *ProjectHandler) Update(ctx context.Context, e domain.Entity) error {
	return h.projects.Update(ctx, e.(*domain.Project))
}

func (h *ProjectHandler) Delete(ctx context.Context, e domain.Entity) error {
	return h.projects.Delete(ctx, e.EntityID())
}

func (h *ProjectHandler) Authorize(ctx context.Context, actor *domain.User, action Action, e domain.Entity) error {
	var project *domain.Project
	if e != nil {
		project = e.(*domain.Project)
	}
	switch action {
	case ActionGet:
		return h.policy.CanRead(ctx, actor, project)
	case ActionPost:
		return h.policy.CanCreate(ctx, actor, project)
	case ActionPut:
		return h.policy.CanUpdate(ctx, actor, project)
	case ActionDelete:
		return h.policy.CanDelete(ctx, actor, project)
	}
	return authz.ErrForbidden
}

// BeforeSave attributes the new project to the requesting user.
func (h *ProjectHandler) BeforeSave(_ context.Context, _ *http.Request, actor *domain.User, e domain.Entity) error {
	project := e.(*domain.Project)
	if !actor.IsAnonymous() {
		project.OwnerID = actor.ID
	}
	return nil
}

func (h *ProjectHandler) AfterSave(context.Context, domain.Entity) {}

func (h *ProjectHandler) Links(e domain.Entity) (string, []string) {
	project := e.(*domain.Project)
	var parents []string
	if project.CategoryID != 0 {
		parents = append(parents, selfLink("category", project.CategoryID))
	}
	return selfLink("project", project.ID), parents
}
