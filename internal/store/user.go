package store

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// UserStore defines persistence operations for users. Users are never
// hard-deleted, so no Delete is offered.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
	GetByName(ctx context.Context, name string) (*domain.User, error)
	GetByAPIKey(ctx context.Context, key string) (*domain.User, error)
	Filter(ctx context.Context, q ListQuery) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
}
