// Package cache memoizes the read-side project aggregates. Entries live
// until their TTL runs out; writes do not invalidate, so aggregates can
// lag the relational store by up to one TTL.
package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// ProjectStats bundles the per-project aggregates served together.
type ProjectStats struct {
	NTasks          int        `json:"n_tasks"`
	NTaskRuns       int        `json:"n_task_runs"`
	NVolunteers     int        `json:"n_volunteers"`
	OverallProgress float64    `json:"overall_progress"`
	LastActivity    *time.Time `json:"last_activity"`
}

// Projects serves project aggregates through a TTL cache in front of the
// stats store.
type Projects struct {
	stats store.StatsStore
	c     *gocache.Cache
	ttl   time.Duration
}

// NewProjects creates the aggregate cache with the given entry lifetime.
func NewProjects(stats store.StatsStore, ttl time.Duration) *Projects {
	return &Projects{
		stats: stats,
		c:     gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// memo returns the cached value under key, computing and storing it on a
// miss. Concurrent misses may compute twice; last writer wins.
func memo[T any](p *Projects, key string, fn func() (T, error)) (T, error) {
	if v, ok := p.c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	t, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}
	p.c.Set(key, t, p.ttl)
	return t, nil
}

// Featured returns the featured, non-hidden projects.
func (p *Projects) Featured(ctx context.Context) ([]*domain.Project, error) {
	return memo(p, "featured", func() ([]*domain.Project, error) {
		return p.stats.Featured(ctx)
	})
}

// Published returns the published projects of a category.
func (p *Projects) Published(ctx context.Context, categoryShortName string) ([]*domain.Project, error) {
	return memo(p, "published:"+categoryShortName, func() ([]*domain.Project, error) {
		return p.stats.Published(ctx, categoryShortName)
	})
}

// Draft returns projects with no presenter and no tasks.
func (p *Projects) Draft(ctx context.Context) ([]*domain.Project, error) {
	return memo(p, "draft", func() ([]*domain.Project, error) {
		return p.stats.Draft(ctx)
	})
}

// Top returns the n projects with the most contributions.
func (p *Projects) Top(ctx context.Context, n int) ([]store.ProjectRank, error) {
	return memo(p, fmt.Sprintf("top:%d", n), func() ([]store.ProjectRank, error) {
		return p.stats.Top(ctx, n)
	})
}

// Stats returns the bundled aggregates of one project.
func (p *Projects) Stats(ctx context.Context, projectID int) (*ProjectStats, error) {
	return memo(p, fmt.Sprintf("stats:%d", projectID), func() (*ProjectStats, error) {
		nTasks, err := p.stats.NTasks(ctx, projectID)
		if err != nil {
			return nil, err
		}
		nRuns, err := p.stats.NTaskRuns(ctx, projectID)
		if err != nil {
			return nil, err
		}
		volunteers, err := p.stats.NVolunteers(ctx, projectID)
		if err != nil {
			return nil, err
		}
		progress, err := p.stats.OverallProgress(ctx, projectID)
		if err != nil {
			return nil, err
		}
		last, err := p.stats.LastActivity(ctx, projectID)
		if err != nil {
			return nil, err
		}

		stats := &ProjectStats{
			NTasks:          nTasks,
			NTaskRuns:       nRuns,
			NVolunteers:     volunteers,
			OverallProgress: progress,
		}
		if !last.IsZero() {
			stats.LastActivity = &last
		}
		return stats, nil
	})
}
