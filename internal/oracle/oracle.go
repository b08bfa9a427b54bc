// Package oracle defines the contracts for the external natural-language
// services the orchestrator depends on. Every oracle is possibly unavailable;
// callers own the fallback behavior and must never surface oracle failures.
package oracle

import "context"

// Classifier maps a classification prompt to a single intent token.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// Extractor returns text expected to contain one JSON object of extracted fields.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}

// Planner returns text expected to contain one JSON object matching the
// execution-plan schema.
type Planner interface {
	Plan(ctx context.Context, prompt string) (string, error)
}

// Researcher returns a free-text background report for a query.
type Researcher interface {
	Research(ctx context.Context, query string) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, prompt string) (string, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, prompt string) (string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, prompt string) (string, error)

// Plan implements Planner.
func (f PlannerFunc) Plan(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ResearcherFunc adapts a function to the Researcher interface.
type ResearcherFunc func(ctx context.Context, query string) (string, error)

// Research implements Researcher.
func (f ResearcherFunc) Research(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}
