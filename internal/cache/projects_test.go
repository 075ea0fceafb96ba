package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// countingStats counts how often each aggregate query reaches the store.
type countingStats struct {
	calls        map[string]int
	lastActivity time.Time
}

func newCountingStats() *countingStats {
	return &countingStats{calls: map[string]int{}}
}

func (s *countingStats) Featured(context.Context) ([]*domain.Project, error) {
	s.calls["featured"]++
	return []*domain.Project{{ID: 1, ShortName: "birds"}}, nil
}

func (s *countingStats) Published(_ context.Context, category string) ([]*domain.Project, error) {
	s.calls["published:"+category]++
	return []*domain.Project{{ID: 2, ShortName: "bugs"}}, nil
}

func (s *countingStats) Draft(context.Context) ([]*domain.Project, error) {
	s.calls["draft"]++
	return nil, nil
}

func (s *countingStats) Top(_ context.Context, n int) ([]store.ProjectRank, error) {
	s.calls["top"]++
	ranks := make([]store.ProjectRank, 0, n)
	for i := 0; i < n; i++ {
		ranks = append(ranks, store.ProjectRank{
			Project:   &domain.Project{ID: i + 1},
			NTaskRuns: 100 - i,
		})
	}
	return ranks, nil
}

func (s *countingStats) NTasks(context.Context, int) (int, error) {
	s.calls["n_tasks"]++
	return 10, nil
}

func (s *countingStats) NTaskRuns(context.Context, int) (int, error) {
	s.calls["n_task_runs"]++
	return 40, nil
}

func (s *countingStats) NVolunteers(context.Context, int) (int, error) {
	s.calls["n_volunteers"]++
	return 7, nil
}

func (s *countingStats) OverallProgress(context.Context, int) (float64, error) {
	s.calls["overall_progress"]++
	return 13.3, nil
}

func (s *countingStats) LastActivity(context.Context, int) (time.Time, error) {
	s.calls["last_activity"]++
	return s.lastActivity, nil
}

func TestFeaturedIsMemoized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stats := newCountingStats()
	cache := NewProjects(stats, time.Minute)

	first, err := cache.Featured(ctx)
	require.NoError(t, err)
	second, err := cache.Featured(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, stats.calls["featured"], "second read must come from the cache")
}

func TestPublishedKeyedByCategory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stats := newCountingStats()
	cache := NewProjects(stats, time.Minute)

	_, err := cache.Published(ctx, "science")
	require.NoError(t, err)
	_, err = cache.Published(ctx, "science")
	require.NoError(t, err)
	_, err = cache.Published(ctx, "art")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.calls["published:science"])
	assert.Equal(t, 1, stats.calls["published:art"])
}

func TestTopKeyedByN(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stats := newCountingStats()
	cache := NewProjects(stats, time.Minute)

	four, err := cache.Top(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, four, 4)

	ten, err := cache.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, ten, 10)

	assert.Equal(t, 2, stats.calls["top"], "different n values are separate entries")
}

func TestStatsBundlesAggregates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stats := newCountingStats()
	stats.lastActivity = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewProjects(stats, time.Minute)

	got, err := cache.Stats(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, got.NTasks)
	assert.Equal(t, 40, got.NTaskRuns)
	assert.Equal(t, 7, got.NVolunteers)
	assert.Equal(t, 13.3, got.OverallProgress)
	require.NotNil(t, got.LastActivity)
	assert.Equal(t, stats.lastActivity, *got.LastActivity)

	_, err = cache.Stats(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.calls["n_tasks"], "bundle is cached as one entry")
}

func TestStatsZeroActivityIsNil(t *testing.T) {
	t.Parallel()

	cache := NewProjects(newCountingStats(), time.Minute)
	got, err := cache.Stats(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, got.LastActivity, "a project with no runs has no last activity")
}

func TestExpiredEntryIsRecomputed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stats := newCountingStats()
	cache := NewProjects(stats, 10*time.Millisecond)

	_, err := cache.Featured(ctx)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	_, err = cache.Featured(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.calls["featured"])
}
