package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/taskloop/taskloop/internal/oracle"
)

func staticPlanner(response string, err error) oracle.Planner {
	return oracle.PlannerFunc(func(ctx context.Context, prompt string) (string, error) {
		return response, err
	})
}

const validPlanJSON = `{
	"locale": "en-US",
	"rationale": "two independent actions in dependency order",
	"steps": [
		{"step_type": "create-project", "title": "Create the Atlas project", "description": "set up the project record"},
		{"step_type": "create-wbs", "title": "Break down the launch", "requires_context": true}
	]
}`

func TestGenerate_ValidPlan(t *testing.T) {
	g := NewGenerator(staticPlanner("Here you go:\n```json\n"+validPlanJSON+"\n```\nGood luck!", nil))

	plan := g.Generate(context.Background(), "set up Atlas and break down the launch")
	if plan == nil {
		t.Fatal("expected a plan")
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(plan.Steps))
	}
	if plan.Steps[0].Type != "create-project" || plan.Steps[1].RequiresContext != true {
		t.Errorf("unexpected steps: %+v", plan.Steps)
	}
	if plan.Locale != "en-US" {
		t.Errorf("locale = %q", plan.Locale)
	}
}

func TestGenerate_NilOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"oracle error", "", errors.New("service unavailable")},
		{"no braces at all", "I am unable to produce a plan.", nil},
		{"unbalanced braces", `{"rationale": "x", "steps": [{"step_type": "a"`, nil},
		{"valid JSON, schema invalid", `{"rationale": "", "steps": []}`, nil},
		{"steps missing entirely", `{"rationale": "solid reasoning here"}`, nil},
		{"step missing title", `{"rationale": "ok", "steps": [{"step_type": "create-wbs"}]}`, nil},
		{"wrong shape", `{"rationale": 42, "steps": "not-a-list"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(staticPlanner(tt.response, tt.err))
			if plan := g.Generate(context.Background(), "do things"); plan != nil {
				t.Errorf("Generate = %+v, want nil", plan)
			}
		})
	}
}

func TestGenerate_NilPlanner(t *testing.T) {
	g := NewGenerator(nil)
	if plan := g.Generate(context.Background(), "anything"); plan != nil {
		t.Error("nil planner must yield nil plan")
	}
}

func TestGenerate_NestedObjectsInSteps(t *testing.T) {
	// Brace counting must survive nested objects and braces inside strings.
	response := `{"rationale": "nested {braces} in a string", "steps": [{"step_type": "get-status", "title": "Check {all} the things"}]} trailing prose`
	g := NewGenerator(staticPlanner(response, nil))

	plan := g.Generate(context.Background(), "status")
	if plan == nil {
		t.Fatal("expected a plan despite braces inside strings")
	}
	if plan.Steps[0].Title != "Check {all} the things" {
		t.Errorf("title = %q", plan.Steps[0].Title)
	}
}

func TestRenderPlanPrompt_EnumeratesStepTypes(t *testing.T) {
	prompt, err := renderPlanPrompt("hello")
	if err != nil {
		t.Fatalf("renderPlanPrompt: %v", err)
	}
	for _, want := range []string{"create-project", "create-wbs", "sprint-planning", "get-status"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing step type %s", want)
		}
	}
	// Meta intents are not plannable steps
	if strings.Contains(prompt, "- unknown") || strings.Contains(prompt, "- help") {
		t.Error("prompt should not offer unknown/help as step types")
	}
}
