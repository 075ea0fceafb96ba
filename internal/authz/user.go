package authz

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// UserPolicy authorizes actions on user accounts: registration is open,
// read is open (the API restricts the visible fields separately), update
// is self-or-admin, and delete is never allowed — accounts are not
// hard-deleted.
type UserPolicy struct{}

// CanCreate always passes: creating a user is registration.
func (UserPolicy) CanCreate(_ context.Context, _ *domain.User, _ *domain.User) error {
	return nil
}

// CanRead always passes.
func (UserPolicy) CanRead(_ context.Context, _ *domain.User, _ *domain.User) error {
	return nil
}

// CanUpdate authorizes updating a user account.
func (UserPolicy) CanUpdate(_ context.Context, actor *domain.User, target *domain.User) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsAnonymous() && actor.ID == target.ID {
		return nil
	}
	return deny(actor)
}

// CanDelete never passes.
func (UserPolicy) CanDelete(_ context.Context, actor *domain.User, _ *domain.User) error {
	return deny(actor)
}
