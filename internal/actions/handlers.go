package actions

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/taskloop/taskloop/internal/backend"
	"github.com/taskloop/taskloop/internal/intent"
	"github.com/taskloop/taskloop/internal/oracle"
	"github.com/taskloop/taskloop/internal/util"
)

// Handlers implements every built-in step type against a backend store.
type Handlers struct {
	store      backend.Store
	researcher oracle.Researcher
	decomposer oracle.Extractor
	logger     *slog.Logger
}

// NewHandlers creates the built-in handler set. researcher and decomposer may
// be nil; the handlers that need them degrade gracefully.
func NewHandlers(store backend.Store, researcher oracle.Researcher, decomposer oracle.Extractor, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: store, researcher: researcher, decomposer: decomposer, logger: logger}
}

// RegisterAll binds every built-in handler to its step type.
func (h *Handlers) RegisterAll(d *Dispatcher) {
	d.Register(string(intent.CreateProject), HandlerFunc(h.CreateProject))
	d.Register(string(intent.CreateWBS), HandlerFunc(h.CreateWBS))
	d.Register(string(intent.SprintPlanning), HandlerFunc(h.SprintPlanning))
	d.Register(string(intent.UpdateTask), HandlerFunc(h.UpdateTask))
	d.Register(string(intent.UpdateSprint), HandlerFunc(h.UpdateSprint))
	d.Register(string(intent.ListTasks), HandlerFunc(h.ListTasks))
	d.Register(string(intent.ListSprints), HandlerFunc(h.ListSprints))
	d.Register(string(intent.GetStatus), HandlerFunc(h.GetStatus))
	d.Register(string(intent.CreateReport), HandlerFunc(h.CreateReport))
	d.Register(string(intent.ResearchTopic), HandlerFunc(h.ResearchTopic))
	d.Register(string(intent.Help), HandlerFunc(h.Help))
}

// CreateProject creates a new project from the gathered name and description.
func (h *Handlers) CreateProject(ctx context.Context, req Request) (StepResult, error) {
	name := stringField(req.Data, "name", "project_name")
	if name == "" {
		return StepResult{}, fmt.Errorf("project name is missing")
	}

	project, err := h.store.CreateProject(backend.Project{
		Name:        name,
		Description: stringField(req.Data, "description"),
	})
	if err != nil {
		return StepResult{}, fmt.Errorf("create project: %w", err)
	}

	h.logger.Info("project created", "id", project.ID, "name", project.Name)
	return completed(req, fmt.Sprintf("Created project %q.", project.Name), map[string]any{
		"project_id":   project.ID,
		"project_name": project.Name,
	}), nil
}

// UpdateTask applies the gathered fields to an existing task.
func (h *Handlers) UpdateTask(ctx context.Context, req Request) (StepResult, error) {
	taskID := stringField(req.Data, "task_id")
	if taskID == "" {
		return StepResult{}, fmt.Errorf("task_id is missing")
	}

	updates := pickUpdates(req.Data, "title", "description", "status", "points", "sprint_id")
	if len(updates) == 0 {
		return StepResult{}, fmt.Errorf("no recognized fields to update")
	}

	resolved, err := h.resolveTaskID(taskID)
	if err != nil {
		return StepResult{}, err
	}
	task, err := h.store.UpdateTask(resolved, updates)
	if err != nil {
		return StepResult{}, fmt.Errorf("update task: %w", err)
	}
	return completed(req, fmt.Sprintf("Updated task %q (status: %s).", task.Title, task.Status), map[string]any{
		"task_id": task.ID,
	}), nil
}

// UpdateSprint applies the gathered fields to an existing sprint.
func (h *Handlers) UpdateSprint(ctx context.Context, req Request) (StepResult, error) {
	sprintID := stringField(req.Data, "sprint_id")
	if sprintID == "" {
		return StepResult{}, fmt.Errorf("sprint_id is missing")
	}

	updates := pickUpdates(req.Data, "name", "status", "capacity")
	if len(updates) == 0 {
		return StepResult{}, fmt.Errorf("no recognized fields to update")
	}

	resolved, err := h.resolveSprintID(sprintID)
	if err != nil {
		return StepResult{}, err
	}
	sprint, err := h.store.UpdateSprint(resolved, updates)
	if err != nil {
		return StepResult{}, fmt.Errorf("update sprint: %w", err)
	}
	return completed(req, fmt.Sprintf("Updated sprint %q (status: %s).", sprint.Name, sprint.Status), map[string]any{
		"sprint_id": sprint.ID,
	}), nil
}

// ListTasks lists tasks matching the gathered filters.
func (h *Handlers) ListTasks(ctx context.Context, req Request) (StepResult, error) {
	filter := backend.TaskFilter{
		ProjectID: stringField(req.Data, "project_id"),
		SprintID:  stringField(req.Data, "sprint_id"),
		Status:    backend.TaskStatus(stringField(req.Data, "status")),
	}
	tasks, err := h.store.ListTasks(filter)
	if err != nil {
		return StepResult{}, fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return completed(req, "No tasks found.", map[string]any{"count": 0}), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d task(s):\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&b, "  • [%s] %s (%s, %d pts)\n", t.Status, t.Title, util.ShortID(t.ID, 0), t.Points)
	}
	return completed(req, strings.TrimRight(b.String(), "\n"), map[string]any{"count": len(tasks)}), nil
}

// ListSprints lists sprints, optionally scoped to a project.
func (h *Handlers) ListSprints(ctx context.Context, req Request) (StepResult, error) {
	sprints, err := h.store.ListSprints(stringField(req.Data, "project_id"))
	if err != nil {
		return StepResult{}, fmt.Errorf("list sprints: %w", err)
	}
	if len(sprints) == 0 {
		return completed(req, "No sprints found.", map[string]any{"count": 0}), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d sprint(s):\n", len(sprints))
	for _, sp := range sprints {
		fmt.Fprintf(&b, "  • %s (%s, %s, capacity %d)\n", sp.Name, util.ShortID(sp.ID, 0), sp.Status, sp.Capacity)
	}
	return completed(req, strings.TrimRight(b.String(), "\n"), map[string]any{"count": len(sprints)}), nil
}

// GetStatus summarizes task counts by status.
func (h *Handlers) GetStatus(ctx context.Context, req Request) (StepResult, error) {
	filter := backend.TaskFilter{ProjectID: stringField(req.Data, "project_id")}
	tasks, err := h.store.ListTasks(filter)
	if err != nil {
		return StepResult{}, fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return completed(req, "Nothing in progress yet: no tasks exist.", map[string]any{"total": 0}), nil
	}

	counts := map[backend.TaskStatus]int{}
	for _, t := range tasks {
		counts[t.Status]++
	}
	order := []backend.TaskStatus{backend.StatusTodo, backend.StatusInProgress, backend.StatusBlocked, backend.StatusDone}
	var parts []string
	for _, st := range order {
		if counts[st] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[st], st))
		}
	}
	return completed(req,
		fmt.Sprintf("%d task(s) total: %s.", len(tasks), strings.Join(parts, ", ")),
		map[string]any{"total": len(tasks), "done": counts[backend.StatusDone]},
	), nil
}

// CreateReport renders a plain-text progress report across projects, sprints
// and tasks.
func (h *Handlers) CreateReport(ctx context.Context, req Request) (StepResult, error) {
	projects, err := h.store.ListProjects()
	if err != nil {
		return StepResult{}, fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		return completed(req, "Nothing to report: no projects exist.", nil), nil
	}

	var b strings.Builder
	b.WriteString("Progress Report\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "\n## %s\n", p.Name)
		sprints, err := h.store.ListSprints(p.ID)
		if err != nil {
			return StepResult{}, fmt.Errorf("list sprints: %w", err)
		}
		for _, sp := range sprints {
			fmt.Fprintf(&b, "- Sprint %s: %s, capacity %d\n", sp.Name, sp.Status, sp.Capacity)
		}
		tasks, err := h.store.ListTasks(backend.TaskFilter{ProjectID: p.ID})
		if err != nil {
			return StepResult{}, fmt.Errorf("list tasks: %w", err)
		}
		done := 0
		for _, t := range tasks {
			if t.Status == backend.StatusDone {
				done++
			}
		}
		fmt.Fprintf(&b, "- Tasks: %d/%d done\n", done, len(tasks))
	}
	return completed(req, strings.TrimRight(b.String(), "\n"), nil), nil
}

// ResearchTopic asks the research oracle for background on a topic and stores
// the report so later steps can build on it.
func (h *Handlers) ResearchTopic(ctx context.Context, req Request) (StepResult, error) {
	topic := stringField(req.Data, "topic")
	if topic == "" {
		topic = req.Description
	}
	if topic == "" {
		return StepResult{}, fmt.Errorf("research topic is missing")
	}

	// An earlier research pass may have already produced the report.
	if cached := stringField(req.Data, "research_context"); cached != "" {
		return completed(req, fmt.Sprintf("Researched %q.", topic), map[string]any{
			"research_context": cached,
		}), nil
	}
	if h.researcher == nil {
		return StepResult{}, fmt.Errorf("research is not configured")
	}

	report, err := h.researcher.Research(ctx, topic)
	if err != nil {
		return StepResult{}, fmt.Errorf("research %q: %w", topic, err)
	}
	return completed(req, fmt.Sprintf("Researched %q.", topic), map[string]any{
		"research_context": strings.TrimSpace(report),
	}), nil
}

// Help lists what the assistant can do.
func (h *Handlers) Help(ctx context.Context, req Request) (StepResult, error) {
	var b strings.Builder
	b.WriteString("Here's what I can help with:\n")
	names := intent.All()
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, name := range names {
		if name == intent.Unknown || name == intent.Help {
			continue
		}
		fmt.Fprintf(&b, "  • %s: %s\n", name, intent.Description(name))
	}
	return completed(req, strings.TrimRight(b.String(), "\n"), nil), nil
}

// resolveTaskID accepts a full task id or a unique prefix, since users in a
// conversation usually quote the short form from a listing.
func (h *Handlers) resolveTaskID(idOrPrefix string) (string, error) {
	tasks, err := h.store.ListTasks(backend.TaskFilter{})
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return util.ResolveID(idOrPrefix, ids, "task")
}

func (h *Handlers) resolveSprintID(idOrPrefix string) (string, error) {
	sprints, err := h.store.ListSprints("")
	if err != nil {
		return "", fmt.Errorf("list sprints: %w", err)
	}
	ids := make([]string, len(sprints))
	for i, sp := range sprints {
		ids[i] = sp.ID
	}
	return util.ResolveID(idOrPrefix, ids, "sprint")
}

// stringField returns the first non-empty string value among the keys.
func stringField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// pickUpdates copies only the listed keys that are present with non-nil values.
func pickUpdates(data map[string]any, keys ...string) map[string]any {
	updates := make(map[string]any)
	for _, key := range keys {
		if v, ok := data[key]; ok && v != nil {
			updates[key] = v
		}
	}
	return updates
}
