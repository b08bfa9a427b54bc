package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/taskloop/taskloop/internal/actions"
	"github.com/taskloop/taskloop/internal/backend"
	"github.com/taskloop/taskloop/internal/intent"
	"github.com/taskloop/taskloop/internal/oracle"
	"github.com/taskloop/taskloop/internal/planner"
	"github.com/taskloop/taskloop/internal/session"
	"github.com/taskloop/taskloop/internal/slots"
)

// oracles bundles the stubbed LLM endpoints a test wants to control.
type oracles struct {
	classifier oracle.Classifier
	extractor  oracle.Extractor
	planner    oracle.Planner
	researcher oracle.Researcher
}

func newTestOrchestrator(t *testing.T, o oracles) (*Orchestrator, backend.Store) {
	t.Helper()
	store := backend.NewMemoryStore()
	dispatcher := actions.NewDispatcher(nil)
	actions.NewHandlers(store, o.researcher, nil, nil).RegisterAll(dispatcher)

	orch, err := New(Deps{
		Sessions:   session.NewLRUStore(session.Options{}),
		Resolver:   intent.NewResolver(o.classifier),
		Slots:      slots.NewEngine(o.extractor),
		Planner:    planner.NewGenerator(o.planner),
		Dispatcher: dispatcher,
		Researcher: o.researcher,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return orch, store
}

func classifyAs(token string) oracle.Classifier {
	return oracle.ClassifierFunc(func(ctx context.Context, prompt string) (string, error) {
		return token, nil
	})
}

func extractJSON(body string) oracle.Extractor {
	return oracle.ExtractorFunc(func(ctx context.Context, prompt string) (string, error) {
		return body, nil
	})
}

func TestHandleMessage_SingleIntentCompletes(t *testing.T) {
	orch, store := newTestOrchestrator(t, oracles{
		classifier: classifyAs("create-project"),
		extractor:  extractJSON(`{"name": "Apollo"}`),
	})

	resp, err := orch.HandleMessage(context.Background(), "s1", "Create a project called Apollo", nil)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.State != session.StateCompleted {
		t.Errorf("State = %q, want completed", resp.State)
	}
	if resp.Intent != "create-project" {
		t.Errorf("Intent = %q", resp.Intent)
	}
	if len(resp.Results) != 1 || resp.Results[0].Failed() {
		t.Fatalf("Results = %+v", resp.Results)
	}

	projects, _ := store.ListProjects()
	if len(projects) != 1 || projects[0].Name != "Apollo" {
		t.Errorf("projects = %+v", projects)
	}
}

func TestHandleMessage_SlotFillingAcrossTurns(t *testing.T) {
	// First turn extracts nothing; the orchestrator must ask, not execute.
	turn := 0
	extractor := oracle.ExtractorFunc(func(ctx context.Context, prompt string) (string, error) {
		turn++
		if turn == 1 {
			return `{}`, nil
		}
		return `{"sprint_name": "Sprint 1", "capacity": 20}`, nil
	})
	orch, store := newTestOrchestrator(t, oracles{
		classifier: classifyAs("sprint-planning"),
		extractor:  extractor,
	})

	resp, err := orch.HandleMessage(context.Background(), "s1", "let's plan a sprint", nil)
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if resp.State != session.StateContextGathering {
		t.Fatalf("State = %q, want context_gathering", resp.State)
	}
	if !strings.Contains(resp.Reply, "sprint") {
		t.Errorf("clarification = %q, want a question about the sprint", resp.Reply)
	}
	if len(resp.Results) != 0 {
		t.Errorf("nothing should execute yet, got %+v", resp.Results)
	}

	resp, err = orch.HandleMessage(context.Background(), "s1", "call it Sprint 1, capacity 20", nil)
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if resp.State != session.StateCompleted {
		t.Fatalf("State = %q, want completed (reply %q)", resp.State, resp.Reply)
	}
	sprints, _ := store.ListSprints("")
	if len(sprints) != 1 || sprints[0].Capacity != 20 {
		t.Errorf("sprints = %+v", sprints)
	}
}

func TestHandleMessage_UnknownIntentStaysInDetection(t *testing.T) {
	orch, _ := newTestOrchestrator(t, oracles{}) // no oracles at all

	resp, err := orch.HandleMessage(context.Background(), "s1", "ponder the orb", nil)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.State != session.StateIntentDetection {
		t.Errorf("State = %q, want intent_detection", resp.State)
	}
	if !strings.Contains(resp.Reply, "help") {
		t.Errorf("Reply = %q, want a pointer at help", resp.Reply)
	}

	// A follow-up that matches a keyword rule still works in the same session.
	resp, err = orch.HandleMessage(context.Background(), "s1", "show me the status", nil)
	if err != nil {
		t.Fatalf("follow-up: %v", err)
	}
	if resp.State != session.StateCompleted || resp.Intent != "get-status" {
		t.Errorf("follow-up = %+v", resp)
	}
}

func TestHandleMessage_BrokenOraclesDegradeToKeywords(t *testing.T) {
	broken := errors.New("model overloaded")
	orch, store := newTestOrchestrator(t, oracles{
		classifier: oracle.ClassifierFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", broken
		}),
		extractor: oracle.ExtractorFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", broken
		}),
		planner: oracle.PlannerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", broken
		}),
	})

	// create-project needs a name and extraction is down, so the flow must
	// land in context gathering rather than erroring out.
	resp, err := orch.HandleMessage(context.Background(), "s1", "create a new project", nil)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.Intent != "create-project" {
		t.Errorf("Intent = %q, want keyword fallback to create-project", resp.Intent)
	}
	if resp.State != session.StateContextGathering {
		t.Errorf("State = %q, want context_gathering", resp.State)
	}
	if projects, _ := store.ListProjects(); len(projects) != 0 {
		t.Errorf("nothing should have been created, got %+v", projects)
	}
}

func TestHandleMessage_MultiStepPlanRunsToTheEnd(t *testing.T) {
	planJSON := `{
		"locale": "en-US",
		"rationale": "status first, then a sprint, then help",
		"steps": [
			{"step_type": "get-status", "title": "Check status"},
			{"step_type": "sprint-planning", "title": "Plan the sprint"},
			{"step_type": "help", "title": "Show capabilities"}
		]
	}`
	orch, _ := newTestOrchestrator(t, oracles{
		planner: oracle.PlannerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "Sure!\n```json\n" + planJSON + "\n```", nil
		}),
	})

	var partials []string
	resp, err := orch.HandleMessage(context.Background(), "s1", "get me set up", func(line string) {
		partials = append(partials, line)
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.State != session.StateCompleted {
		t.Fatalf("State = %q, want completed", resp.State)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("got %d results, want all 3 steps executed", len(resp.Results))
	}
	// Step 2 fails (no sprint name or capacity gathered) but must not stop step 3.
	if !resp.Results[1].Failed() {
		t.Errorf("step 2 = %+v, want failure", resp.Results[1])
	}
	if resp.Results[0].Failed() || resp.Results[2].Failed() {
		t.Errorf("steps 1 and 3 should succeed: %+v", resp.Results)
	}
	if !strings.Contains(resp.Reply, "✅ Check status") || !strings.Contains(resp.Reply, "❌ Plan the sprint") {
		t.Errorf("transcript = %q", resp.Reply)
	}
	if !strings.Contains(resp.Reply, "Completed 2 of 3 steps") {
		t.Errorf("transcript summary = %q", resp.Reply)
	}

	// onPartial saw the plan summary plus one line per step.
	if len(partials) != 4 {
		t.Fatalf("partials = %q, want summary + 3 step lines", partials)
	}
	if !strings.Contains(partials[0], "3 steps") {
		t.Errorf("summary partial = %q", partials[0])
	}
}

func TestHandleMessage_WBSFlowRunsResearchFirst(t *testing.T) {
	var researched string
	orch, store := newTestOrchestrator(t, oracles{
		classifier: classifyAs("create-wbs"),
		researcher: oracle.ResearcherFunc(func(ctx context.Context, query string) (string, error) {
			researched = query
			return "Key considerations: auth, migrations, rollout.", nil
		}),
	})

	var partials []string
	resp, err := orch.HandleMessage(context.Background(), "s1", "Break down the onboarding revamp", func(line string) {
		partials = append(partials, line)
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.State != session.StateCompleted {
		t.Fatalf("State = %q, reply %q", resp.State, resp.Reply)
	}
	if researched == "" {
		t.Error("research oracle was never consulted")
	}
	if len(partials) == 0 || !strings.Contains(partials[0], "Researching") {
		t.Errorf("partials = %q, want a research progress line first", partials)
	}
	if tasks, _ := store.ListTasks(backend.TaskFilter{}); len(tasks) == 0 {
		t.Error("no tasks created by the breakdown")
	}
}

func TestHandleMessage_CompletedSessionStartsFreshFlow(t *testing.T) {
	orch, store := newTestOrchestrator(t, oracles{
		classifier: classifyAs("create-project"),
		extractor:  extractJSON(`{"name": "Apollo"}`),
	})

	if _, err := orch.HandleMessage(context.Background(), "s1", "Create project Apollo", nil); err != nil {
		t.Fatal(err)
	}

	// Same session, new flow: status of the project created above.
	orch.resolver = intent.NewResolver(classifyAs("get-status"))
	resp, err := orch.HandleMessage(context.Background(), "s1", "how is it going?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.State != session.StateCompleted || resp.Intent != "get-status" {
		t.Errorf("second flow = %+v", resp)
	}

	// The project survives and the first flow is not re-run.
	if projects, _ := store.ListProjects(); len(projects) != 1 {
		t.Errorf("projects = %+v", projects)
	}
}

func TestHandleMessage_EmptyMessage(t *testing.T) {
	orch, _ := newTestOrchestrator(t, oracles{})
	if _, err := orch.HandleMessage(context.Background(), "s1", "   ", nil); err == nil {
		t.Error("expected an error for an empty message")
	}
}

func TestNew_RequiredDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("expected an error without a session store")
	}
	if _, err := New(Deps{Sessions: session.NewLRUStore(session.Options{})}); err == nil {
		t.Error("expected an error without a dispatcher")
	}
}
