package store

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// Contributor identifies the actor of a contribution: a registered user
// id or an anonymous IP address, never both.
type Contributor struct {
	UserID int    // 0 when anonymous
	UserIP string // empty for registered users
}

// TaskStore defines persistence operations for tasks. Deleting a task
// cascades to its runs.
type TaskStore interface {
	GetByID(ctx context.Context, id int) (*domain.Task, error)
	Filter(ctx context.Context, q ListQuery) ([]*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id int) error

	// NextForContributor returns the lowest-id ongoing task of the
	// project that the contributor has not yet answered, or
	// ErrTaskNotFound when none remain.
	NextForContributor(ctx context.Context, projectID int, c Contributor) (*domain.Task, error)
}

// TaskRunStore defines persistence operations for task runs.
type TaskRunStore interface {
	GetByID(ctx context.Context, id int) (*domain.TaskRun, error)
	Filter(ctx context.Context, q ListQuery) ([]*domain.TaskRun, error)
	Create(ctx context.Context, run *domain.TaskRun) error
	Update(ctx context.Context, run *domain.TaskRun) error
	Delete(ctx context.Context, id int) error

	// CountForTask returns the number of runs recorded for a task.
	CountForTask(ctx context.Context, taskID int) (int, error)

	// ExistsForContributor reports whether the contributor already has a
	// run for the task.
	ExistsForContributor(ctx context.Context, taskID int, c Contributor) (bool, error)
}
