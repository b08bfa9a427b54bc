package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskloop/taskloop/internal/backend"
)

// SprintPlanning creates a sprint and greedily assigns unscheduled todo tasks
// until the point capacity is reached. Tasks are considered in creation order;
// a task whose points exceed the remaining capacity is skipped, not split.
func (h *Handlers) SprintPlanning(ctx context.Context, req Request) (StepResult, error) {
	name := stringField(req.Data, "sprint_name", "name")
	if name == "" {
		return StepResult{}, fmt.Errorf("sprint name is missing")
	}
	rawCapacity, ok := req.Data["capacity"]
	if !ok {
		return StepResult{}, fmt.Errorf("capacity is missing")
	}
	capacity, err := backend.CoerceInt(rawCapacity)
	if err != nil {
		return StepResult{}, fmt.Errorf("capacity: %w", err)
	}
	if capacity <= 0 {
		return StepResult{}, fmt.Errorf("capacity must be positive, got %d", capacity)
	}

	projectID := stringField(req.Data, "project_id")
	sprint, err := h.store.CreateSprint(backend.Sprint{
		ProjectID: projectID,
		Name:      name,
		Capacity:  capacity,
	})
	if err != nil {
		return StepResult{}, fmt.Errorf("create sprint: %w", err)
	}

	candidates, err := h.store.ListTasks(backend.TaskFilter{ProjectID: projectID, Status: backend.StatusTodo})
	if err != nil {
		return StepResult{}, fmt.Errorf("list tasks: %w", err)
	}

	remaining := capacity
	var assigned []backend.Task
	for _, t := range candidates {
		if t.SprintID != "" {
			continue
		}
		cost := t.Points
		if cost <= 0 {
			// Unestimated work still occupies a slot.
			cost = 1
		}
		if cost > remaining {
			continue
		}
		updated, err := h.store.UpdateTask(t.ID, map[string]any{"sprint_id": sprint.ID})
		if err != nil {
			return StepResult{}, fmt.Errorf("assign task %q: %w", t.Title, err)
		}
		assigned = append(assigned, updated)
		remaining -= cost
		if remaining == 0 {
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created sprint %q with capacity %d and assigned %d task(s) (%d points used):\n",
		sprint.Name, capacity, len(assigned), capacity-remaining)
	for _, t := range assigned {
		fmt.Fprintf(&b, "  • %s (%d pts)\n", t.Title, t.Points)
	}
	if len(assigned) == 0 {
		b.Reset()
		fmt.Fprintf(&b, "Created sprint %q with capacity %d. No unscheduled tasks were available to assign.",
			sprint.Name, capacity)
	}
	return completed(req, strings.TrimRight(b.String(), "\n"), map[string]any{
		"sprint_id":      sprint.ID,
		"assigned_count": len(assigned),
	}), nil
}
