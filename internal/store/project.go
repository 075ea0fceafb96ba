package store

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// ProjectStore defines persistence operations for projects. Deleting a
// project cascades to its tasks and their runs.
type ProjectStore interface {
	GetByID(ctx context.Context, id int) (*domain.Project, error)
	GetByShortName(ctx context.Context, shortName string) (*domain.Project, error)
	Filter(ctx context.Context, q ListQuery) ([]*domain.Project, error)
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id int) error
}

// CategoryStore defines persistence operations for categories.
type CategoryStore interface {
	GetByID(ctx context.Context, id int) (*domain.Category, error)
	GetByShortName(ctx context.Context, shortName string) (*domain.Category, error)
	Filter(ctx context.Context, q ListQuery) ([]*domain.Category, error)
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id int) error
}
