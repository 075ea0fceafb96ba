package store

import (
	"context"
	"time"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// ProjectRank pairs a project with its contribution count for top-N
// queries.
type ProjectRank struct {
	Project    *domain.Project
	NTaskRuns  int
	Volunteers int
}

// StatsStore defines the read-side aggregate queries the cache layer
// memoizes. Implementations compute from the relational store; callers
// go through internal/cache, which owns the expiry policy.
type StatsStore interface {
	// Featured returns featured, non-hidden projects.
	Featured(ctx context.Context) ([]*domain.Project, error)

	// Published returns the non-hidden, published (presenter + tasks)
	// projects of a category.
	Published(ctx context.Context, categoryShortName string) ([]*domain.Project, error)

	// Draft returns projects with no presenter and zero tasks.
	Draft(ctx context.Context) ([]*domain.Project, error)

	// Top returns the n non-hidden projects with the most task runs,
	// ordered by run count descending; ties break by project id
	// ascending.
	Top(ctx context.Context, n int) ([]ProjectRank, error)

	// NTasks returns the number of tasks in a project.
	NTasks(ctx context.Context, projectID int) (int, error)

	// NTaskRuns returns the number of task runs in a project.
	NTaskRuns(ctx context.Context, projectID int) (int, error)

	// NVolunteers returns the number of distinct contributors to a
	// project: distinct registered user ids plus distinct anonymous IPs.
	NVolunteers(ctx context.Context, projectID int) (int, error)

	// OverallProgress returns the percentage of target answers collected
	// across the project's tasks, in [0, 100].
	OverallProgress(ctx context.Context, projectID int) (float64, error)

	// LastActivity returns the most recent task run finish time of the
	// project, or the zero time when it has no runs.
	LastActivity(ctx context.Context, projectID int) (time.Time, error)
}
