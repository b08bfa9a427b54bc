package actions

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/taskloop/taskloop/internal/backend"
	"github.com/taskloop/taskloop/internal/utils"
)

// wbsResponse is the JSON shape the decomposition oracle is asked to produce.
type wbsResponse struct {
	Tasks []wbsTask `json:"tasks"`
}

type wbsTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

const maxWBSTasks = 30

var wbsPromptTemplate = template.Must(template.New("wbs").Parse(`Break the following goal into concrete work items.

Goal: {{.Goal}}
{{- if .Research}}

Background research:
{{.Research}}
{{- end}}

Respond with ONLY a JSON object of the form:
{"tasks": [{"title": "...", "description": "...", "points": 1}]}

Rules:
- 4 to 12 tasks, each independently actionable
- points is a 1-8 effort estimate
- no prose outside the JSON object`))

// CreateWBS decomposes a goal into tasks and stores them under a project.
// The decomposition comes from the oracle when available; on any oracle or
// parse failure it falls back to a fixed phase breakdown so the step still
// produces a usable structure.
func (h *Handlers) CreateWBS(ctx context.Context, req Request) (StepResult, error) {
	goal := stringField(req.Data, "name", "topic")
	if goal == "" {
		goal = req.Description
	}
	if goal == "" {
		return StepResult{}, fmt.Errorf("no goal to break down")
	}

	project, err := h.resolveOrCreateProject(req.Data, goal)
	if err != nil {
		return StepResult{}, err
	}

	items := h.decompose(ctx, goal, stringField(req.Data, "research_context"))
	created := 0
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		_, err := h.store.CreateTask(backend.Task{
			ProjectID:   project.ID,
			Title:       item.Title,
			Description: item.Description,
			Points:      item.Points,
		})
		if err != nil {
			return StepResult{}, fmt.Errorf("create task %q: %w", item.Title, err)
		}
		created++
	}
	if created == 0 {
		return StepResult{}, fmt.Errorf("decomposition produced no tasks")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created a work breakdown with %d tasks under project %q:\n", created, project.Name)
	for _, item := range items {
		fmt.Fprintf(&b, "  • %s (%d pts)\n", item.Title, item.Points)
	}
	return completed(req, strings.TrimRight(b.String(), "\n"), map[string]any{
		"project_id": project.ID,
		"task_count": created,
	}), nil
}

// decompose asks the oracle for a task breakdown, falling back to a generic
// phase structure when the oracle is absent, fails, or returns garbage.
func (h *Handlers) decompose(ctx context.Context, goal, research string) []wbsTask {
	if h.decomposer == nil {
		return defaultBreakdown(goal)
	}

	var prompt strings.Builder
	if err := wbsPromptTemplate.Execute(&prompt, struct{ Goal, Research string }{goal, research}); err != nil {
		h.logger.Debug("wbs prompt render failed", "error", err)
		return defaultBreakdown(goal)
	}

	raw, err := h.decomposer.Extract(ctx, prompt.String())
	if err != nil {
		h.logger.Debug("wbs decomposition oracle failed", "error", err)
		return defaultBreakdown(goal)
	}
	parsed, err := utils.ExtractAndParseJSON[wbsResponse](raw)
	if err != nil || len(parsed.Tasks) == 0 {
		h.logger.Debug("wbs decomposition unparseable", "error", err)
		return defaultBreakdown(goal)
	}
	if len(parsed.Tasks) > maxWBSTasks {
		parsed.Tasks = parsed.Tasks[:maxWBSTasks]
	}
	return parsed.Tasks
}

// defaultBreakdown is the oracle-free fallback structure.
func defaultBreakdown(goal string) []wbsTask {
	return []wbsTask{
		{Title: fmt.Sprintf("Define scope and requirements for %s", goal), Points: 2},
		{Title: fmt.Sprintf("Design the approach for %s", goal), Points: 3},
		{Title: fmt.Sprintf("Implement %s", goal), Points: 5},
		{Title: fmt.Sprintf("Test and review %s", goal), Points: 3},
		{Title: fmt.Sprintf("Deliver and document %s", goal), Points: 2},
	}
}

// resolveOrCreateProject finds the project named in the data, or creates one
// named after the goal when nothing matches.
func (h *Handlers) resolveOrCreateProject(data map[string]any, goal string) (backend.Project, error) {
	if id := stringField(data, "project_id"); id != "" {
		return h.store.GetProject(id)
	}

	name := stringField(data, "name", "project_name")
	if name == "" {
		name = goal
	}
	projects, err := h.store.ListProjects()
	if err != nil {
		return backend.Project{}, fmt.Errorf("list projects: %w", err)
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return h.store.CreateProject(backend.Project{Name: name})
}
