package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"text/template"

	"github.com/taskloop/taskloop/internal/intent"
	"github.com/taskloop/taskloop/internal/oracle"
	"github.com/taskloop/taskloop/internal/utils"
)

// Generator produces validated execution plans from a planning oracle.
type Generator struct {
	planner oracle.Planner
}

// NewGenerator creates a Generator. A nil planner makes Generate always
// return nil, which callers already treat as "use the single-intent flow".
func NewGenerator(p oracle.Planner) *Generator {
	return &Generator{planner: p}
}

// Generate invokes the planning oracle once and returns a validated plan, or
// nil on any failure: oracle error, no balanced JSON object in the output, or
// schema validation failure. Generate never returns an error; nil is not a
// failure to surface, it is a routing decision.
func (g *Generator) Generate(ctx context.Context, userMessage string) *ExecutionPlan {
	if g.planner == nil {
		return nil
	}

	prompt, err := renderPlanPrompt(userMessage)
	if err != nil {
		slog.Debug("plan prompt render failed", "error", err)
		return nil
	}

	raw, err := g.planner.Plan(ctx, prompt)
	if err != nil {
		slog.Debug("plan generation degraded to single-intent flow", "kind", oracle.KindOf(err), "error", err)
		return nil
	}

	obj, err := utils.ExtractBalancedObject(raw)
	if err != nil {
		slog.Debug("planner output had no balanced JSON object", "error", err)
		return nil
	}

	var plan ExecutionPlan
	if err := json.Unmarshal([]byte(obj), &plan); err != nil {
		slog.Debug("planner output failed to decode", "error", err)
		return nil
	}

	if result := plan.Validate(); !result.Valid {
		slog.Debug("planner output failed schema validation", "errors", result.ErrorSummary())
		return nil
	}
	return &plan
}

var planPromptTemplate = template.Must(template.New("plan").Parse(`You are a project-management assistant converting a request into an ordered execution plan.

REQUEST:
{{.Message}}

Available step types:
{{- range .StepTypes}}
- {{.}}
{{- end}}

INSTRUCTIONS:
Respond with a single JSON object matching this schema:

{
  "locale": "BCP 47 tag of the language you answered in",
  "rationale": "why the plan is shaped this way",
  "steps": [
    {
      "step_type": "one of the step types above",
      "title": "short action-oriented title",
      "description": "what this step does",
      "requires_context": true when the step reads fields produced by earlier steps
    }
  ]
}

RULES:
- Steps run strictly in the order given
- Use only the listed step types
- Output ONLY valid JSON, no markdown or explanation

Generate the plan JSON now:`))

func renderPlanPrompt(message string) (string, error) {
	stepTypes := make([]string, 0, len(intent.All()))
	for _, t := range intent.All() {
		if t == intent.Unknown || t == intent.Help {
			continue
		}
		stepTypes = append(stepTypes, string(t))
	}

	var buf bytes.Buffer
	err := planPromptTemplate.Execute(&buf, map[string]any{
		"Message":   message,
		"StepTypes": stepTypes,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
