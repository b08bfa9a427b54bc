package backend

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite for persistence.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed store. Pass ":memory:" for an
// ephemeral database.
func NewSQLiteStore(basePath string) (*SQLiteStore, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, "tracker.db")
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// initSchema creates the tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sprints (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'planned',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		sprint_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'todo',
		points INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_sprint ON tasks(sprint_id);
	CREATE INDEX IF NOT EXISTS idx_sprints_project ON sprints(project_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// CreateProject implements Store.
func (s *SQLiteStore) CreateProject(p Project) (Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt),
	)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// GetProject implements Store.
func (s *SQLiteStore) GetProject(id string) (Project, error) {
	row := s.db.QueryRow(`SELECT id, name, description, created_at, updated_at FROM projects WHERE id = ?`, id)
	var p Project
	var created, updated string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Project{}, fmt.Errorf("scan project: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
	return p, nil
}

// ListProjects implements Store.
func (s *SQLiteStore) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT id, name, description, created_at, updated_at FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Project
	for rows.Next() {
		var p Project
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateTask implements Store.
func (s *SQLiteStore) CreateTask(t Task) (Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, project_id, sprint_id, title, description, status, points, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.SprintID, t.Title, t.Description, string(t.Status), t.Points,
		fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt),
	)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// GetTask implements Store.
func (s *SQLiteStore) GetTask(id string) (Task, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, sprint_id, title, description, status, points, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	return scanTask(id, row.Scan)
}

// UpdateTask implements Store.
func (s *SQLiteStore) UpdateTask(id string, updates map[string]any) (Task, error) {
	t, err := s.GetTask(id)
	if err != nil {
		return Task{}, err
	}
	if err := applyTaskUpdates(&t, updates); err != nil {
		return Task{}, err
	}
	t.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE tasks SET sprint_id = ?, title = ?, description = ?, status = ?, points = ?, updated_at = ? WHERE id = ?`,
		t.SprintID, t.Title, t.Description, string(t.Status), t.Points, fmtTime(t.UpdatedAt), id,
	)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// ListTasks implements Store.
func (s *SQLiteStore) ListTasks(filter TaskFilter) ([]Task, error) {
	query := `SELECT id, project_id, sprint_id, title, description, status, points, created_at, updated_at FROM tasks WHERE 1=1`
	var args []any
	if filter.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filter.ProjectID)
	}
	if filter.SprintID != "" {
		query += " AND sprint_id = ?"
		args = append(args, filter.SprintID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Task
	for rows.Next() {
		t, err := scanTask("", rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateSprint implements Store.
func (s *SQLiteStore) CreateSprint(sp Sprint) (Sprint, error) {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	if sp.Status == "" {
		sp.Status = "planned"
	}
	now := time.Now().UTC()
	sp.CreatedAt, sp.UpdatedAt = now, now

	_, err := s.db.Exec(
		`INSERT INTO sprints (id, project_id, name, capacity, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.ProjectID, sp.Name, sp.Capacity, sp.Status, fmtTime(sp.CreatedAt), fmtTime(sp.UpdatedAt),
	)
	if err != nil {
		return Sprint{}, fmt.Errorf("insert sprint: %w", err)
	}
	return sp, nil
}

// GetSprint implements Store.
func (s *SQLiteStore) GetSprint(id string) (Sprint, error) {
	row := s.db.QueryRow(`SELECT id, project_id, name, capacity, status, created_at, updated_at FROM sprints WHERE id = ?`, id)
	var sp Sprint
	var created, updated string
	err := row.Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.Capacity, &sp.Status, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Sprint{}, fmt.Errorf("sprint %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Sprint{}, fmt.Errorf("scan sprint: %w", err)
	}
	sp.CreatedAt, sp.UpdatedAt = parseTime(created), parseTime(updated)
	return sp, nil
}

// UpdateSprint implements Store.
func (s *SQLiteStore) UpdateSprint(id string, updates map[string]any) (Sprint, error) {
	sp, err := s.GetSprint(id)
	if err != nil {
		return Sprint{}, err
	}
	if err := applySprintUpdates(&sp, updates); err != nil {
		return Sprint{}, err
	}
	sp.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE sprints SET name = ?, capacity = ?, status = ?, updated_at = ? WHERE id = ?`,
		sp.Name, sp.Capacity, sp.Status, fmtTime(sp.UpdatedAt), id,
	)
	if err != nil {
		return Sprint{}, fmt.Errorf("update sprint: %w", err)
	}
	return sp, nil
}

// ListSprints implements Store.
func (s *SQLiteStore) ListSprints(projectID string) ([]Sprint, error) {
	query := `SELECT id, project_id, name, capacity, status, created_at, updated_at FROM sprints`
	var args []any
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY created_at"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Sprint
	for rows.Next() {
		var sp Sprint
		var created, updated string
		if err := rows.Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.Capacity, &sp.Status, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan sprint: %w", err)
		}
		sp.CreatedAt, sp.UpdatedAt = parseTime(created), parseTime(updated)
		out = append(out, sp)
	}
	return out, rows.Err()
}

func scanTask(id string, scan func(dest ...any) error) (Task, error) {
	var t Task
	var sprintID sql.NullString
	var created, updated string
	err := scan(&t.ID, &t.ProjectID, &sprintID, &t.Title, &t.Description, &t.Status, &t.Points, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.SprintID = sprintID.String
	t.CreatedAt, t.UpdatedAt = parseTime(created), parseTime(updated)
	return t, nil
}

func fmtTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
