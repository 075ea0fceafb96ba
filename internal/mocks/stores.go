// Package mocks provides in-memory store implementations for handler and
// policy tests. They reproduce the store contracts closely enough for
// API-level tests: id-ascending order, keyset pagination and
// attribute-equality filters against JSON field names.
package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// matches reports whether the entity's JSON rendering satisfies every
// filter. Filter values arrive as query-parameter strings, so both sides
// compare as strings.
func matches(entity any, filters map[string]any) bool {
	data, err := json.Marshal(entity)
	if err != nil {
		return false
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	for k, want := range filters {
		got, ok := fields[k]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// page applies keyset/offset pagination to an id-sorted slice.
func page[T any](items []T, id func(T) int, q store.ListQuery) []T {
	q = q.Normalize()
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })

	if q.LastID > 0 {
		idx := 0
		for idx < len(items) && id(items[idx]) <= q.LastID {
			idx++
		}
		items = items[idx:]
	} else if q.Offset > 0 {
		if q.Offset >= len(items) {
			return nil
		}
		items = items[q.Offset:]
	}
	if len(items) > q.Limit {
		items = items[:q.Limit]
	}
	return items
}

// UserStore is an in-memory store.UserStore.
type UserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*domain.User
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int]*domain.User)}
}

func (s *UserStore) GetByID(_ context.Context, id int) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *UserStore) GetByName(_ context.Context, name string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == name {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *UserStore) GetByAPIKey(_ context.Context, key string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.APIKey == key {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *UserStore) Filter(_ context.Context, q store.ListQuery) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.User
	for _, u := range s.users {
		if matches(u, q.Filters) {
			copied := *u
			out = append(out, &copied)
		}
	}
	return page(out, func(u *domain.User) int { return u.ID }, q), nil
}

func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == user.Name || u.Email == user.Email {
			return store.ErrConflict
		}
	}
	s.nextID++
	user.ID = s.nextID
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *UserStore) Update(_ context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

// ProjectStore is an in-memory store.ProjectStore.
type ProjectStore struct {
	mu       sync.Mutex
	nextID   int
	projects map[int]*domain.Project

	// Cascade targets, optional.
	Tasks *TaskStore
}

// NewProjectStore creates an empty project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[int]*domain.Project)}
}

func (s *ProjectStore) GetByID(_ context.Context, id int) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *ProjectStore) GetByShortName(_ context.Context, shortName string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ShortName == shortName {
			copied := *p
			return &copied, nil
		}
	}
	return nil, store.ErrProjectNotFound
}

func (s *ProjectStore) Filter(_ context.Context, q store.ListQuery) ([]*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Project
	for _, p := range s.projects {
		if matches(p, q.Filters) {
			copied := *p
			out = append(out, &copied)
		}
	}
	return page(out, func(p *domain.Project) int { return p.ID }, q), nil
}

func (s *ProjectStore) Create(_ context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ShortName == project.ShortName {
			return store.ErrConflict
		}
	}
	s.nextID++
	project.ID = s.nextID
	copied := *project
	s.projects[project.ID] = &copied
	return nil
}

func (s *ProjectStore) Update(_ context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return store.ErrProjectNotFound
	}
	copied := *project
	s.projects[project.ID] = &copied
	return nil
}

func (s *ProjectStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	if _, ok := s.projects[id]; !ok {
		s.mu.Unlock()
		return store.ErrProjectNotFound
	}
	delete(s.projects, id)
	s.mu.Unlock()

	if s.Tasks != nil {
		s.Tasks.deleteByProject(id)
	}
	return nil
}

// CategoryStore is an in-memory store.CategoryStore.
type CategoryStore struct {
	mu         sync.Mutex
	nextID     int
	categories map[int]*domain.Category
}

// NewCategoryStore creates an empty category store.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: make(map[int]*domain.Category)}
}

func (s *CategoryStore) GetByID(_ context.Context, id int) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *CategoryStore) GetByShortName(_ context.Context, shortName string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ShortName == shortName {
			copied := *c
			return &copied, nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

func (s *CategoryStore) Filter(_ context.Context, q store.ListQuery) ([]*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Category
	for _, c := range s.categories {
		if matches(c, q.Filters) {
			copied := *c
			out = append(out, &copied)
		}
	}
	return page(out, func(c *domain.Category) int { return c.ID }, q), nil
}

func (s *CategoryStore) Create(_ context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	category.ID = s.nextID
	copied := *category
	s.categories[category.ID] = &copied
	return nil
}

func (s *CategoryStore) Update(_ context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[category.ID]; !ok {
		return store.ErrCategoryNotFound
	}
	copied := *category
	s.categories[category.ID] = &copied
	return nil
}

func (s *CategoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return store.ErrCategoryNotFound
	}
	delete(s.categories, id)
	return nil
}
