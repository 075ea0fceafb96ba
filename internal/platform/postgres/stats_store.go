package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// StatsStore implements the read-side aggregate queries on PostgreSQL.
type StatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewStatsStore creates a PostgreSQL implementation of store.StatsStore.
func NewStatsStore(db store.DBTX, log *slog.Logger) *StatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &StatsStore{
		db:     db,
		logger: log.With(slog.String("component", "stats_store")),
	}
}

var _ store.StatsStore = (*StatsStore)(nil)

func (s *StatsStore) queryProjects(ctx context.Context, query string, args ...any) ([]*domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Featured returns featured, non-hidden projects.
func (s *StatsStore) Featured(ctx context.Context) ([]*domain.Project, error) {
	return s.queryProjects(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE featured AND NOT hidden
		ORDER BY id`)
}

// Published returns the non-hidden projects of a category that have both
// a task presenter and at least one task.
func (s *StatsStore) Published(ctx context.Context, categoryShortName string) ([]*domain.Project, error) {
	return s.queryProjects(ctx, `
		SELECT `+projectColumns+`
		FROM projects p
		WHERE NOT p.hidden
		  AND p.category_id = (SELECT id FROM categories WHERE short_name = $1)
		  AND COALESCE(p.info->>'task_presenter', '') <> ''
		  AND EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id)
		ORDER BY p.id`, categoryShortName)
}

// Draft returns projects with no task presenter and zero tasks.
func (s *StatsStore) Draft(ctx context.Context) ([]*domain.Project, error) {
	return s.queryProjects(ctx, `
		SELECT `+projectColumns+`
		FROM projects p
		WHERE COALESCE(p.info->>'task_presenter', '') = ''
		  AND NOT EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id)
		ORDER BY p.id`)
}

// Top returns the n non-hidden projects with the most task runs.
// Contribution-count ties break by project id ascending; the secondary
// key is explicit in the query.
func (s *StatsStore) Top(ctx context.Context, n int) ([]store.ProjectRank, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixedProjectColumns+`,
		       COUNT(tr.id) AS n_task_runs,
		       COUNT(DISTINCT tr.user_id) + COUNT(DISTINCT tr.user_ip) AS volunteers
		FROM projects p
		LEFT JOIN task_runs tr ON tr.project_id = p.id
		WHERE NOT p.hidden
		GROUP BY p.id
		ORDER BY n_task_runs DESC, p.id
		LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ranks []store.ProjectRank
	for rows.Next() {
		var p domain.Project
		var category sql.NullInt64
		var count, volunteers int
		err := rows.Scan(&p.ID, &p.Name, &p.ShortName, &p.Description, &p.OwnerID,
			&category, &p.Hidden, &p.Featured, &p.AllowAnonymous,
			&p.Webhook, &p.Info, &p.Created, &p.Updated, &count, &volunteers)
		if err != nil {
			return nil, err
		}
		p.CategoryID = int(category.Int64)
		ranks = append(ranks, store.ProjectRank{Project: &p, NTaskRuns: count, Volunteers: volunteers})
	}
	return ranks, rows.Err()
}

// NTasks returns the number of tasks in a project.
func (s *StatsStore) NTasks(ctx context.Context, projectID int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE project_id = $1`, projectID).Scan(&n)
	return n, err
}

// NTaskRuns returns the number of task runs in a project.
func (s *StatsStore) NTaskRuns(ctx context.Context, projectID int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_runs WHERE project_id = $1`, projectID).Scan(&n)
	return n, err
}

// NVolunteers returns the number of distinct contributors to a project.
func (s *StatsStore) NVolunteers(ctx context.Context, projectID int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id) + COUNT(DISTINCT user_ip)
		FROM task_runs
		WHERE project_id = $1`, projectID).Scan(&n)
	return n, err
}

// OverallProgress returns the percentage of target answers collected
// across the project's tasks, in [0, 100].
func (s *StatsStore) OverallProgress(ctx context.Context, projectID int) (float64, error) {
	var runs, expected int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE((SELECT COUNT(*) FROM task_runs WHERE project_id = $1), 0),
		       COALESCE((SELECT SUM(n_answers) FROM tasks WHERE project_id = $1), 0)`,
		projectID).Scan(&runs, &expected)
	if err != nil {
		return 0, err
	}
	if expected == 0 {
		return 0, nil
	}
	progress := float64(runs) / float64(expected) * 100
	if progress > 100 {
		progress = 100
	}
	return progress, nil
}

// LastActivity returns the most recent task run finish time of the
// project, or the zero time when it has no runs.
func (s *StatsStore) LastActivity(ctx context.Context, projectID int) (time.Time, error) {
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(finish_time) FROM task_runs WHERE project_id = $1`,
		projectID).Scan(&last)
	if err != nil {
		return time.Time{}, err
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

const prefixedProjectColumns = `p.id, p.name, p.short_name, p.description, p.owner_id,
	p.category_id, p.hidden, p.featured, p.allow_anonymous_contributors,
	p.webhook, p.info, p.created, p.updated`
