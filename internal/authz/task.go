package authz

import (
	"context"
	"fmt"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// TaskPolicy authorizes actions on tasks: read is open, mutation belongs
// to the owning project's owner or an admin.
type TaskPolicy struct {
	Projects store.ProjectStore
}

// CanCreate authorizes task creation.
func (p TaskPolicy) CanCreate(ctx context.Context, actor *domain.User, task *domain.Task) error {
	return p.projectOwnerOrAdmin(ctx, actor, task.ProjectID)
}

// CanRead always passes.
func (TaskPolicy) CanRead(_ context.Context, _ *domain.User, _ *domain.Task) error {
	return nil
}

// CanUpdate authorizes updating a task.
func (p TaskPolicy) CanUpdate(ctx context.Context, actor *domain.User, task *domain.Task) error {
	return p.projectOwnerOrAdmin(ctx, actor, task.ProjectID)
}

// CanDelete authorizes deleting a task.
func (p TaskPolicy) CanDelete(ctx context.Context, actor *domain.User, task *domain.Task) error {
	return p.projectOwnerOrAdmin(ctx, actor, task.ProjectID)
}

func (p TaskPolicy) projectOwnerOrAdmin(ctx context.Context, actor *domain.User, projectID int) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsAnonymous() {
		return ErrUnauthorized
	}
	project, err := p.Projects.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("resolving project for authorization: %w", err)
	}
	if actor.ID == project.OwnerID {
		return nil
	}
	return ErrForbidden
}
