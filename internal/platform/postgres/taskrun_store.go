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

// TaskRunStore implements store.TaskRunStore on PostgreSQL.
type TaskRunStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskRunStore creates a PostgreSQL implementation of store.TaskRunStore.
func NewTaskRunStore(db store.DBTX, log *slog.Logger) *TaskRunStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskRunStore{
		db:     db,
		logger: log.With(slog.String("component", "taskrun_store")),
	}
}

var _ store.TaskRunStore = (*TaskRunStore)(nil)

const taskRunColumns = `id, project_id, task_id, user_id, user_ip, info, created, finish_time`

func scanTaskRun(row interface{ Scan(...any) error }) (*domain.TaskRun, error) {
	var r domain.TaskRun
	var userID sql.NullInt64
	var userIP sql.NullString
	err := row.Scan(&r.ID, &r.ProjectID, &r.TaskID, &userID, &userIP,
		&r.Info, &r.Created, &r.FinishTime)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		id := int(userID.Int64)
		r.UserID = &id
	}
	if userIP.Valid {
		ip := userIP.String
		r.UserIP = &ip
	}
	return &r, nil
}

// GetByID returns the task run with the given id, or store.ErrTaskRunNotFound.
func (s *TaskRunStore) GetByID(ctx context.Context, id int) (*domain.TaskRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskRunColumns+` FROM task_runs WHERE id = $1`, id)
	r, err := scanTaskRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaskRunNotFound
	}
	return r, err
}

// Filter returns task runs matching the query's attribute filters,
// ordered by id ascending.
func (s *TaskRunStore) Filter(ctx context.Context, q store.ListQuery) ([]*domain.TaskRun, error) {
	clause, args := listClause(q, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskRunColumns+` FROM task_runs`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []*domain.TaskRun
	for rows.Next() {
		r, err := scanTaskRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Create inserts a new task run and fills in its generated id.
func (s *TaskRunStore) Create(ctx context.Context, run *domain.TaskRun) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	now := time.Now().UTC()
	if run.Created.IsZero() {
		run.Created = now
	}
	if run.FinishTime.IsZero() {
		run.FinishTime = now
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO task_runs (project_id, task_id, user_id, user_ip, info, created, finish_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		run.ProjectID, run.TaskID, run.UserID, run.UserIP,
		run.Info, run.Created, run.FinishTime,
	).Scan(&run.ID)
	if err != nil {
		log.Warn("failed to create task run",
			slog.Int("task_id", run.TaskID),
			slog.String("error", err.Error()))
		return translateError(err)
	}

	log.Info("task run created",
		slog.Int("taskrun_id", run.ID),
		slog.Int("task_id", run.TaskID),
		slog.Bool("anonymous", run.Anonymous()))
	return nil
}

// Update persists changes to an existing task run. Attribution columns
// are deliberately not updatable.
func (s *TaskRunStore) Update(ctx context.Context, run *domain.TaskRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE task_runs
		SET info = $1
		WHERE id = $2`,
		run.Info, run.ID,
	)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTaskRunNotFound
	}
	return nil
}

// Delete removes a task run.
func (s *TaskRunStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM task_runs WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTaskRunNotFound
	}
	return nil
}

// CountForTask returns the number of runs recorded for a task.
func (s *TaskRunStore) CountForTask(ctx context.Context, taskID int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_runs WHERE task_id = $1`, taskID).Scan(&n)
	return n, err
}

// ExistsForContributor reports whether the contributor already has a run
// for the task.
func (s *TaskRunStore) ExistsForContributor(ctx context.Context, taskID int, c store.Contributor) (bool, error) {
	var query string
	var arg any
	switch {
	case c.UserID != 0:
		query = `SELECT EXISTS (SELECT 1 FROM task_runs WHERE task_id = $1 AND user_id = $2)`
		arg = c.UserID
	case c.UserIP != "":
		query = `SELECT EXISTS (SELECT 1 FROM task_runs WHERE task_id = $1 AND user_ip = $2)`
		arg = c.UserIP
	default:
		return false, nil
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, query, taskID, arg).Scan(&exists)
	return exists, err
}
