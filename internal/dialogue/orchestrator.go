// Package dialogue runs the turn-by-turn conversation flow: intent detection,
// context gathering, optional research, plan execution, and completion. The
// orchestrator is the only writer of session state during a turn; hosts must
// serialize turns per session id.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskloop/taskloop/internal/actions"
	"github.com/taskloop/taskloop/internal/intent"
	"github.com/taskloop/taskloop/internal/oracle"
	"github.com/taskloop/taskloop/internal/planner"
	"github.com/taskloop/taskloop/internal/session"
	"github.com/taskloop/taskloop/internal/slots"
)

// Response is the outcome of one processed turn.
type Response struct {
	SessionID string               `json:"session_id"`
	Reply     string               `json:"reply"`
	State     session.FlowState    `json:"state"`
	Intent    string               `json:"intent,omitempty"`
	Results   []actions.StepResult `json:"results,omitempty"`
}

// Deps are the orchestrator's collaborators. Sessions and Dispatcher are
// required; the rest may be nil and degrade to deterministic behavior.
type Deps struct {
	Sessions   session.Store
	Resolver   *intent.Resolver
	Slots      *slots.Engine
	Planner    *planner.Generator
	Dispatcher *actions.Dispatcher
	Researcher oracle.Researcher
	Logger     *slog.Logger
}

// Orchestrator coordinates one conversation turn at a time.
type Orchestrator struct {
	sessions   session.Store
	resolver   *intent.Resolver
	slots      *slots.Engine
	planner    *planner.Generator
	dispatcher *actions.Dispatcher
	researcher oracle.Researcher
	logger     *slog.Logger
}

// New creates an Orchestrator, filling in degraded defaults for optional deps.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Resolver == nil {
		deps.Resolver = intent.NewResolver(nil)
	}
	if deps.Slots == nil {
		deps.Slots = slots.NewEngine(nil)
	}
	if deps.Planner == nil {
		deps.Planner = planner.NewGenerator(nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{
		sessions:   deps.Sessions,
		resolver:   deps.Resolver,
		slots:      deps.Slots,
		planner:    deps.Planner,
		dispatcher: deps.Dispatcher,
		researcher: deps.Researcher,
		logger:     deps.Logger,
	}, nil
}

const unknownReply = "I'm not sure what you'd like to do. You can ask me to create a project, " +
	"break work down, plan a sprint, check status, or say \"help\" to see everything I can do."

// HandleMessage processes one user message for a session. onPartial, when
// non-nil, receives progress lines as multi-step work executes; the final
// transcript is returned in the Response either way. HandleMessage returns an
// error only for host-level problems (empty input, session store failure) —
// oracle failures and step failures never surface as errors.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, message string, onPartial func(string)) (*Response, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message is empty")
	}
	emit := func(line string) {
		if onPartial != nil {
			onPartial(line)
		}
	}

	sess, err := o.sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if sess.State == session.StateCompleted {
		o.resetFlow(sess)
	}
	sess.AppendTurn(session.RoleUser, message)

	var resp *Response
	switch sess.State {
	case session.StateContextGathering:
		resp = o.handleGathering(ctx, sess, message, emit)
	default:
		// Intent detection, plus recovery for sessions persisted mid-flow in a
		// transient state.
		resp = o.handleFirstTurn(ctx, sess, message, emit)
	}

	sess.AppendTurn(session.RoleAssistant, resp.Reply)
	if err := o.sessions.Persist(sess); err != nil {
		o.logger.Warn("session persist failed", "session_id", sess.ID, "error", err)
	}
	return resp, nil
}

// handleFirstTurn starts a new flow: try a multi-step plan first, otherwise
// classify a single intent and gather its context.
func (o *Orchestrator) handleFirstTurn(ctx context.Context, sess *session.ConversationContext, message string, emit func(string)) *Response {
	sess.State = session.StatePlanningPhase
	if plan := o.planner.Generate(ctx, message); plan != nil && len(plan.Steps) > 1 {
		o.logger.Info("executing generated plan", "session_id", sess.ID, "steps", len(plan.Steps))
		return o.executePlan(ctx, sess, plan, emit)
	}

	sess.State = session.StateIntentDetection
	history := sess.History[:len(sess.History)-1] // exclude the turn being handled
	it := o.resolver.Classify(ctx, message, history)
	o.logger.Debug("intent resolved", "session_id", sess.ID, "intent", it)

	if it == intent.Unknown {
		sess.Intent = ""
		return o.respond(sess, unknownReply, nil)
	}

	sess.Intent = string(it)
	for k, v := range o.slots.Extract(ctx, message, it, sess.DataSnapshot()) {
		sess.SetField(k, v)
	}
	return o.advance(ctx, sess, message, emit)
}

// handleGathering continues slot filling for the session's pending intent.
func (o *Orchestrator) handleGathering(ctx context.Context, sess *session.ConversationContext, message string, emit func(string)) *Response {
	it := intent.Type(sess.Intent)
	for k, v := range o.slots.Extract(ctx, message, it, sess.DataSnapshot()) {
		sess.SetField(k, v)
	}
	return o.advance(ctx, sess, message, emit)
}

// advance moves the flow forward once the latest message has been absorbed:
// ask for missing context, run research when the intent calls for it, then
// execute.
func (o *Orchestrator) advance(ctx context.Context, sess *session.ConversationContext, message string, emit func(string)) *Response {
	it := intent.Type(sess.Intent)

	if missing := slots.MissingFields(sess); len(missing) > 0 {
		sess.State = session.StateContextGathering
		question := o.slots.Clarification(it, missing, sess.DataSnapshot())
		return o.respond(sess, question, nil)
	}

	if intent.RequiresResearch(it) && o.researcher != nil && !sess.HasField("research_context") {
		o.research(ctx, sess, message, emit)
	}

	sess.State = session.StateExecutionPhase
	result := o.dispatcher.Dispatch(ctx, actions.Request{
		Type:        sess.Intent,
		Title:       intent.Description(it),
		Description: message,
		Data:        sess.DataSnapshot(),
	})
	o.absorb(sess, result)
	emit(stepLine(result))

	sess.State = session.StateCompleted
	reply := result.Message
	if result.Failed() {
		reply = fmt.Sprintf("❌ %s failed: %s", result.Title, result.Message)
	}
	return o.respond(sess, reply, []actions.StepResult{result})
}

// executePlan runs every step of a plan in order. A failed step is recorded
// and reported, never fatal: the remaining steps still run, and the session
// completes regardless of the mix of outcomes.
func (o *Orchestrator) executePlan(ctx context.Context, sess *session.ConversationContext, plan *planner.ExecutionPlan, emit func(string)) *Response {
	emit(planSummary(plan))

	sess.State = session.StateExecutionPhase
	results := make([]actions.StepResult, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		result := o.dispatcher.Dispatch(ctx, actions.Request{
			Type:        step.Type,
			Title:       step.Title,
			Description: step.Description,
			Data:        sess.DataSnapshot(),
		})
		o.absorb(sess, result)
		emit(stepLine(result))
		results = append(results, result)
	}

	sess.State = session.StateCompleted
	return o.respond(sess, transcript(results), results)
}

// research runs the background research pass. Failures are logged and
// swallowed; execution proceeds without the extra context.
func (o *Orchestrator) research(ctx context.Context, sess *session.ConversationContext, message string, emit func(string)) {
	sess.State = session.StateResearchPhase
	query := sess.StringField("topic")
	if query == "" {
		query = sess.StringField("name")
	}
	if query == "" {
		query = message
	}

	emit(fmt.Sprintf("Researching %q...", query))
	report, err := o.researcher.Research(ctx, query)
	if err != nil {
		o.logger.Debug("research degraded", "session_id", sess.ID, "kind", oracle.KindOf(err), "error", err)
		return
	}
	sess.SetField("research_context", strings.TrimSpace(report))
}

// absorb merges step outputs into the session so later steps (and later
// flows) can reference them.
func (o *Orchestrator) absorb(sess *session.ConversationContext, result actions.StepResult) {
	for k, v := range result.Data {
		sess.SetField(k, v)
	}
}

// resetFlow prepares a completed session for a new flow. History survives,
// and the active project carries over so follow-up requests stay anchored.
func (o *Orchestrator) resetFlow(sess *session.ConversationContext) {
	projectID, hasProject := sess.Field("project_id")
	sess.State = session.StateIntentDetection
	sess.Intent = ""
	sess.GatheredData = make(map[string]any)
	if hasProject {
		sess.SetField("project_id", projectID)
	}
}

func (o *Orchestrator) respond(sess *session.ConversationContext, reply string, results []actions.StepResult) *Response {
	return &Response{
		SessionID: sess.ID,
		Reply:     reply,
		State:     sess.State,
		Intent:    sess.Intent,
		Results:   results,
	}
}

func stepLine(r actions.StepResult) string {
	if r.Failed() {
		return fmt.Sprintf("❌ %s: %s", r.Title, r.Message)
	}
	return fmt.Sprintf("✅ %s", r.Title)
}

func planSummary(plan *planner.ExecutionPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I'll do this in %d steps:\n", len(plan.Steps))
	for i, step := range plan.Steps {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, step.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// transcript renders the final step-by-step summary for a multi-step run.
func transcript(results []actions.StepResult) string {
	succeeded := 0
	var b strings.Builder
	for _, r := range results {
		b.WriteString(stepLine(r))
		b.WriteByte('\n')
		if !r.Failed() {
			succeeded++
		}
	}
	fmt.Fprintf(&b, "\nCompleted %d of %d steps.", succeeded, len(results))
	if succeeded < len(results) {
		b.WriteString(" The failed steps did not stop the others.")
	}
	return b.String()
}
