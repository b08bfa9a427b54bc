package actions

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher routes step requests to registered handlers. The handler table
// is closed after construction; an unregistered step type is an error result,
// not a panic.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher with no handlers registered.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register binds a handler to a step type, replacing any previous binding.
func (d *Dispatcher) Register(stepType string, h Handler) {
	d.handlers[stepType] = h
}

// Supports reports whether a handler is registered for the step type.
func (d *Dispatcher) Supports(stepType string) bool {
	_, ok := d.handlers[stepType]
	return ok
}

// Dispatch executes one step. It never returns an error: unknown step types
// and handler failures both come back as error-outcome results so callers
// can keep executing the remaining steps of a plan.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) StepResult {
	h, ok := d.handlers[req.Type]
	if !ok {
		d.logger.Warn("no handler for step type", "type", req.Type)
		return errorResult(req, fmt.Sprintf("no handler registered for step type %q", req.Type))
	}

	result, err := h.Execute(ctx, req)
	if err != nil {
		d.logger.Warn("step failed", "type", req.Type, "title", req.Title, "error", err)
		return errorResult(req, err.Error())
	}
	if result.Title == "" {
		result.Title = req.Title
	}
	if result.Type == "" {
		result.Type = req.Type
	}
	if result.Outcome == "" {
		result.Outcome = OutcomeCompleted
	}
	return result
}

func errorResult(req Request, message string) StepResult {
	return StepResult{
		Title:   req.Title,
		Type:    req.Type,
		Outcome: OutcomeError,
		Message: message,
	}
}
