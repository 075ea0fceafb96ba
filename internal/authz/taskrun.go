package authz

import (
	"context"
	"fmt"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// TaskRunPolicy authorizes actions on task runs. Read is unrestricted.
// Creation is open, with two exceptions: projects that disallow anonymous
// contributions reject anonymous actors, and an actor with a persisted
// run for the task may not submit another. Anonymous runs can never be
// updated by anyone and deleted only by an admin; user-authored runs are
// updated/deleted by their author or an admin.
type TaskRunPolicy struct {
	Projects store.ProjectStore
	TaskRuns store.TaskRunStore
}

// CanCreate authorizes creating the candidate run. The run must already
// carry its attribution (user id or IP).
func (p TaskRunPolicy) CanCreate(ctx context.Context, actor *domain.User, run *domain.TaskRun) error {
	project, err := p.Projects.GetByID(ctx, run.ProjectID)
	if err != nil {
		return fmt.Errorf("resolving project for authorization: %w", err)
	}
	if actor.IsAnonymous() && !project.AllowAnonymous {
		return ErrUnauthorized
	}

	c := store.Contributor{}
	if run.UserID != nil {
		c.UserID = *run.UserID
	} else if run.UserIP != nil {
		c.UserIP = *run.UserIP
	}
	exists, err := p.TaskRuns.ExistsForContributor(ctx, run.TaskID, c)
	if err != nil {
		return fmt.Errorf("checking for duplicate contribution: %w", err)
	}
	if exists {
		return ErrForbidden
	}
	return nil
}

// CanRead always passes.
func (TaskRunPolicy) CanRead(_ context.Context, _ *domain.User, _ *domain.TaskRun) error {
	return nil
}

// CanUpdate authorizes updating a run. Anonymous runs are immutable for
// everyone, admins included.
func (TaskRunPolicy) CanUpdate(_ context.Context, actor *domain.User, run *domain.TaskRun) error {
	if run.Anonymous() {
		return deny(actor)
	}
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsAnonymous() && run.UserID != nil && actor.ID == *run.UserID {
		return nil
	}
	return deny(actor)
}

// CanDelete authorizes deleting a run. Anonymous runs may be deleted only
// by an admin.
func (TaskRunPolicy) CanDelete(_ context.Context, actor *domain.User, run *domain.TaskRun) error {
	if run.Anonymous() {
		if actor.IsAdmin() {
			return nil
		}
		return deny(actor)
	}
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsAnonymous() && run.UserID != nil && actor.ID == *run.UserID {
		return nil
	}
	return deny(actor)
}
