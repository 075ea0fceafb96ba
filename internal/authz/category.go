package authz

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// CategoryPolicy authorizes actions on categories: read is open to all,
// mutation is admin-only.
type CategoryPolicy struct{}

// CanCreate authorizes category creation.
func (CategoryPolicy) CanCreate(_ context.Context, actor *domain.User, _ *domain.Category) error {
	return onlyAdmin(actor)
}

// CanRead always passes.
func (CategoryPolicy) CanRead(_ context.Context, _ *domain.User, _ *domain.Category) error {
	return nil
}

// CanUpdate authorizes updating a category.
func (CategoryPolicy) CanUpdate(_ context.Context, actor *domain.User, _ *domain.Category) error {
	return onlyAdmin(actor)
}

// CanDelete authorizes deleting a category.
func (CategoryPolicy) CanDelete(_ context.Context, actor *domain.User, _ *domain.Category) error {
	return onlyAdmin(actor)
}

func onlyAdmin(actor *domain.User) error {
	if actor.IsAdmin() {
		return nil
	}
	return deny(actor)
}
