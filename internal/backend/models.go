// Package backend provides a uniform CRUD interface over project-management
// records (projects, tasks, sprints). Action handlers talk to trackers only
// through this interface; tracker-specific field mapping lives elsewhere.
package backend

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
	StatusBlocked    TaskStatus = "blocked"
)

// Project is a top-level container for tasks and sprints.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Task is a unit of work, optionally assigned to a sprint.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	SprintID    string     `json:"sprint_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Points      int        `json:"points,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Sprint is a time-boxed iteration with a point capacity.
type Sprint struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Status    string    `json:"status"` // planned, active, closed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskFilter narrows ListTasks results. Zero values match everything.
type TaskFilter struct {
	ProjectID string
	SprintID  string
	Status    TaskStatus
}

// Matches reports whether a task passes the filter.
func (f TaskFilter) Matches(t Task) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.SprintID != "" && t.SprintID != f.SprintID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// Store is the uniform CRUD contract action handlers depend on.
type Store interface {
	CreateProject(p Project) (Project, error)
	GetProject(id string) (Project, error)
	ListProjects() ([]Project, error)

	CreateTask(t Task) (Task, error)
	GetTask(id string) (Task, error)
	UpdateTask(id string, updates map[string]any) (Task, error)
	ListTasks(filter TaskFilter) ([]Task, error)

	CreateSprint(s Sprint) (Sprint, error)
	GetSprint(id string) (Sprint, error)
	UpdateSprint(id string, updates map[string]any) (Sprint, error)
	ListSprints(projectID string) ([]Sprint, error)

	Close() error
}
