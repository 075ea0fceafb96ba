package api

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// actorKey is the private context key for the authenticated actor.
type actorKey struct{}

// WithActor returns a context carrying the authenticated user. A nil user
// marks the anonymous actor.
func WithActor(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, actorKey{}, user)
}

// ActorFromContext returns the authenticated user stored by the auth
// middleware, or nil for anonymous requests.
func ActorFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(actorKey{}).(*domain.User)
	return user
}
