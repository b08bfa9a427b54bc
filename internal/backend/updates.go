package backend

import (
	"fmt"
	"math"
	"strconv"
)

// applyTaskUpdates mutates t with the recognized update keys. Unknown keys
// are rejected so callers notice typos instead of silently dropping edits.
func applyTaskUpdates(t *Task, updates map[string]any) error {
	for key, value := range updates {
		switch key {
		case "title":
			t.Title = fmt.Sprint(value)
		case "description":
			t.Description = fmt.Sprint(value)
		case "status":
			status, err := parseStatus(fmt.Sprint(value))
			if err != nil {
				return err
			}
			t.Status = status
		case "sprint_id":
			t.SprintID = fmt.Sprint(value)
		case "points":
			points, err := CoerceInt(value)
			if err != nil {
				return fmt.Errorf("points: %w", err)
			}
			t.Points = points
		default:
			return fmt.Errorf("unknown task field %q", key)
		}
	}
	return nil
}

// applySprintUpdates mutates sp with the recognized update keys.
func applySprintUpdates(sp *Sprint, updates map[string]any) error {
	for key, value := range updates {
		switch key {
		case "name":
			sp.Name = fmt.Sprint(value)
		case "status":
			sp.Status = fmt.Sprint(value)
		case "capacity":
			capacity, err := CoerceInt(value)
			if err != nil {
				return fmt.Errorf("capacity: %w", err)
			}
			sp.Capacity = capacity
		default:
			return fmt.Errorf("unknown sprint field %q", key)
		}
	}
	return nil
}

func parseStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked:
		return TaskStatus(s), nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

// CoerceInt accepts the numeric shapes JSON decoding and slot extraction
// produce: int, float64, or a numeric string.
func CoerceInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not a whole number: %v", n)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("not a number: %v (%T)", v, v)
	}
}
