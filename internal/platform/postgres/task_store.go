package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/platform/logger"
	"github.com/crowdlab/crowdlab/internal/store"
)

// TaskStore implements store.TaskStore on PostgreSQL.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a PostgreSQL implementation of store.TaskStore.
func NewTaskStore(db store.DBTX, log *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

const taskColumns = `id, project_id, state, quorum, n_answers, priority_0, info, created`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.State, &t.Quorum, &t.NAnswers,
		&t.Priority, &t.Info, &t.Created)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns the task with the given id, or store.ErrTaskNotFound.
func (s *TaskStore) GetByID(ctx context.Context, id int) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaskNotFound
	}
	return t, err
}

// Filter returns tasks matching the query's attribute filters, ordered by
// id ascending.
func (s *TaskStore) Filter(ctx context.Context, q store.ListQuery) ([]*domain.Task, error) {
	clause, args := listClause(q, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Create inserts a new task and fills in its generated id.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task.State == "" {
		task.State = domain.TaskStateOngoing
	}
	if task.NAnswers == 0 {
		task.NAnswers = domain.DefaultNAnswers
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if task.Created.IsZero() {
		task.Created = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (project_id, state, quorum, n_answers, priority_0, info, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		task.ProjectID, task.State, task.Quorum, task.NAnswers,
		task.Priority, task.Info, task.Created,
	).Scan(&task.ID)
	if err != nil {
		log.Warn("failed to create task",
			slog.Int("project_id", task.ProjectID),
			slog.String("error", err.Error()))
		return translateError(err)
	}
	return nil
}

// Update persists changes to an existing task.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET project_id = $1, state = $2, quorum = $3, n_answers = $4,
		    priority_0 = $5, info = $6
		WHERE id = $7`,
		task.ProjectID, task.State, task.Quorum, task.NAnswers,
		task.Priority, task.Info, task.ID,
	)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// Delete removes a task. Its runs cascade at the schema level.
func (s *TaskStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// NextForContributor returns the lowest-id ongoing task of the project
// without a run from the contributor, or store.ErrTaskNotFound.
func (s *TaskStore) NextForContributor(ctx context.Context, projectID int, c store.Contributor) (*domain.Task, error) {
	var userID any
	var userIP any
	if c.UserID != 0 {
		userID = c.UserID
	}
	if c.UserIP != "" {
		userIP = c.UserIP
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = $1
		  AND state = 'ongoing'
		  AND id NOT IN (
			SELECT task_id FROM task_runs
			WHERE ($2::int IS NOT NULL AND user_id = $2::int)
			   OR ($3::text IS NOT NULL AND user_ip = $3::text)
		  )
		ORDER BY id
		LIMIT 1`,
		projectID, userID, userIP)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaskNotFound
	}
	return t, err
}
