package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// TaskStore is an in-memory store.TaskStore.
type TaskStore struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]*domain.Task

	// Cascade target, optional.
	Runs *TaskRunStore
}

// NewTaskStore creates an empty task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[int]*domain.Task)}
}

func (s *TaskStore) GetByID(_ context.Context, id int) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *TaskStore) Filter(_ context.Context, q store.ListQuery) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, t := range s.tasks {
		if matches(t, q.Filters) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return page(out, func(t *domain.Task) int { return t.ID }, q), nil
}

func (s *TaskStore) Create(_ context.Context, task *domain.Task) error {
	if task.State == "" {
		task.State = domain.TaskStateOngoing
	}
	if task.NAnswers == 0 {
		task.NAnswers = domain.DefaultNAnswers
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	task.ID = s.nextID
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *TaskStore) Update(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *TaskStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	if _, ok := s.tasks[id]; !ok {
		s.mu.Unlock()
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	s.mu.Unlock()

	if s.Runs != nil {
		s.Runs.deleteByTask(id)
	}
	return nil
}

func (s *TaskStore) NextForContributor(ctx context.Context, projectID int, c store.Contributor) (*domain.Task, error) {
	s.mu.Lock()
	var candidates []*domain.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID && t.State == domain.TaskStateOngoing {
			copied := *t
			candidates = append(candidates, &copied)
		}
	}
	s.mu.Unlock()

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	for _, t := range candidates {
		answered := false
		if s.Runs != nil {
			var err error
			answered, err = s.Runs.ExistsForContributor(ctx, t.ID, c)
			if err != nil {
				return nil, err
			}
		}
		if !answered {
			return t, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

// deleteByProject removes the tasks of a deleted project, cascading to
// their runs.
func (s *TaskStore) deleteByProject(projectID int) {
	s.mu.Lock()
	var removed []int
	for id, t := range s.tasks {
		if t.ProjectID == projectID {
			removed = append(removed, id)
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	if s.Runs != nil {
		for _, id := range removed {
			s.Runs.deleteByTask(id)
		}
	}
}

// TaskRunStore is an in-memory store.TaskRunStore.
type TaskRunStore struct {
	mu     sync.Mutex
	nextID int
	runs   map[int]*domain.TaskRun
}

// NewTaskRunStore creates an empty task run store.
func NewTaskRunStore() *TaskRunStore {
	return &TaskRunStore{runs: make(map[int]*domain.TaskRun)}
}

func (s *TaskRunStore) GetByID(_ context.Context, id int) (*domain.TaskRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, store.ErrTaskRunNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *TaskRunStore) Filter(_ context.Context, q store.ListQuery) ([]*domain.TaskRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.TaskRun
	for _, r := range s.runs {
		if matches(r, q.Filters) {
			copied := *r
			out = append(out, &copied)
		}
	}
	return page(out, func(r *domain.TaskRun) int { return r.ID }, q), nil
}

func (s *TaskRunStore) Create(_ context.Context, run *domain.TaskRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	run.ID = s.nextID
	copied := *run
	s.runs[run.ID] = &copied
	return nil
}

func (s *TaskRunStore) Update(_ context.Context, run *domain.TaskRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.runs[run.ID]
	if !ok {
		return store.ErrTaskRunNotFound
	}
	// Only info is mutable, as in the relational store.
	existing.Info = run.Info
	return nil
}

func (s *TaskRunStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return store.ErrTaskRunNotFound
	}
	delete(s.runs, id)
	return nil
}

func (s *TaskRunStore) CountForTask(_ context.Context, taskID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.runs {
		if r.TaskID == taskID {
			count++
		}
	}
	return count, nil
}

func (s *TaskRunStore) ExistsForContributor(_ context.Context, taskID int, c store.Contributor) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.TaskID != taskID {
			continue
		}
		if c.UserID != 0 && r.UserID != nil && *r.UserID == c.UserID {
			return true, nil
		}
		if c.UserIP != "" && r.UserIP != nil && *r.UserIP == c.UserIP {
			return true, nil
		}
	}
	return false, nil
}

func (s *TaskRunStore) deleteByTask(taskID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.runs {
		if r.TaskID == taskID {
			delete(s.runs, id)
		}
	}
}
