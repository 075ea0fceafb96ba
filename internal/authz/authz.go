// Package authz holds the per-entity authorization policies. Each policy
// answers create/read/update/delete for an (actor, target) pair; a nil
// *domain.User actor is anonymous. Policies return ErrUnauthorized for
// anonymous actors and ErrForbidden for authenticated ones, which the API
// layer maps to 401 and 403.
package authz

import (
	"errors"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
)

// deny returns the right error for a refused actor: 401 when anonymous,
// 403 when authenticated.
func deny(actor *domain.User) error {
	if actor.IsAnonymous() {
		return ErrUnauthorized
	}
	return ErrForbidden
}
