package authz

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// ProjectPolicy authorizes actions on projects: anyone authenticated may
// create, hidden projects are readable only by their owner or an admin,
// and mutation is owner-or-admin.
type ProjectPolicy struct{}

// CanCreate authorizes project creation.
func (ProjectPolicy) CanCreate(_ context.Context, actor *domain.User, _ *domain.Project) error {
	if actor.IsAnonymous() {
		return ErrUnauthorized
	}
	return nil
}

// CanRead authorizes reading a project. A nil project is the class-level
// check, which always passes.
func (ProjectPolicy) CanRead(_ context.Context, actor *domain.User, project *domain.Project) error {
	if project == nil || !project.Hidden {
		return nil
	}
	if actor.IsAdmin() || (!actor.IsAnonymous() && actor.ID == project.OwnerID) {
		return nil
	}
	return deny(actor)
}

// CanUpdate authorizes updating a project.
func (ProjectPolicy) CanUpdate(_ context.Context, actor *domain.User, project *domain.Project) error {
	return ownerOrAdmin(actor, project.OwnerID)
}

// CanDelete authorizes deleting a project.
func (ProjectPolicy) CanDelete(_ context.Context, actor *domain.User, project *domain.Project) error {
	return ownerOrAdmin(actor, project.OwnerID)
}

func ownerOrAdmin(actor *domain.User, ownerID int) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsAnonymous() && actor.ID == ownerID {
		return nil
	}
	return deny(actor)
}
