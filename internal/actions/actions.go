// Package actions executes individual dialogue steps against the project
// backend. The dispatcher owns a closed table of handlers keyed by step type;
// handler failures become error results, never propagated errors, so a
// multi-step plan always runs to the end.
package actions

import "context"

// Step outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeError     = "error"
)

// Request is the input to a single step execution. Data is a snapshot of the
// session's gathered fields; mutating it has no effect on the session.
type Request struct {
	Type        string
	Title       string
	Description string
	Data        map[string]any
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Title   string         `json:"title"`
	Type    string         `json:"type"`
	Outcome string         `json:"outcome"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Failed reports whether the step ended in an error outcome.
func (r StepResult) Failed() bool { return r.Outcome == OutcomeError }

// Handler executes one step type. A returned error marks the step failed;
// the dispatcher converts it into an error result.
type Handler interface {
	Execute(ctx context.Context, req Request) (StepResult, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req Request) (StepResult, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, req Request) (StepResult, error) {
	return f(ctx, req)
}

// completed builds a successful result for a request.
func completed(req Request, message string, data map[string]any) StepResult {
	return StepResult{
		Title:   req.Title,
		Type:    req.Type,
		Outcome: OutcomeCompleted,
		Message: message,
		Data:    data,
	}
}
