package backend

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used as the default backend and in
// tests. Unlike session records, backend records are shared across sessions,
// so access is mutex-guarded.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]Project
	tasks    map[string]Task
	sprints  map[string]Sprint
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]Project),
		tasks:    make(map[string]Task),
		sprints:  make(map[string]Sprint),
	}
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// CreateProject implements Store.
func (s *MemoryStore) CreateProject(p Project) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.projects[p.ID] = p
	return p, nil
}

// GetProject implements Store.
func (s *MemoryStore) GetProject(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// ListProjects implements Store.
func (s *MemoryStore) ListProjects() ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CreateTask implements Store.
func (s *MemoryStore) CreateTask(t Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tasks[t.ID] = t
	return t, nil
}

// GetTask implements Store.
func (s *MemoryStore) GetTask(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return t, nil
}

// UpdateTask implements Store.
func (s *MemoryStore) UpdateTask(id string, updates map[string]any) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err := applyTaskUpdates(&t, updates); err != nil {
		return Task{}, err
	}
	t.UpdatedAt = time.Now().UTC()
	s.tasks[id] = t
	return t, nil
}

// ListTasks implements Store.
func (s *MemoryStore) ListTasks(filter TaskFilter) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Task
	for _, t := range s.tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CreateSprint implements Store.
func (s *MemoryStore) CreateSprint(sp Sprint) (Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	if sp.Status == "" {
		sp.Status = "planned"
	}
	now := time.Now().UTC()
	sp.CreatedAt, sp.UpdatedAt = now, now
	s.sprints[sp.ID] = sp
	return sp, nil
}

// GetSprint implements Store.
func (s *MemoryStore) GetSprint(id string) (Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.sprints[id]
	if !ok {
		return Sprint{}, fmt.Errorf("sprint %s: %w", id, ErrNotFound)
	}
	return sp, nil
}

// UpdateSprint implements Store.
func (s *MemoryStore) UpdateSprint(id string, updates map[string]any) (Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.sprints[id]
	if !ok {
		return Sprint{}, fmt.Errorf("sprint %s: %w", id, ErrNotFound)
	}
	if err := applySprintUpdates(&sp, updates); err != nil {
		return Sprint{}, err
	}
	sp.UpdatedAt = time.Now().UTC()
	s.sprints[id] = sp
	return sp, nil
}

// ListSprints implements Store.
func (s *MemoryStore) ListSprints(projectID string) ([]Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Sprint
	for _, sp := range s.sprints {
		if projectID == "" || sp.ProjectID == projectID {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
