// Package session owns conversation state: one ConversationContext per
// session id, carried across turns until the flow completes.
package session

import (
	"time"
)

// FlowState identifies where a conversation is in the dialogue flow.
type FlowState string

const (
	// StateIntentDetection is the initial state of every new session.
	StateIntentDetection FlowState = "intent_detection"
	// StateContextGathering collects required fields across turns.
	StateContextGathering FlowState = "context_gathering"
	// StateResearchPhase runs background research before execution.
	StateResearchPhase FlowState = "research_phase"
	// StatePlanningPhase holds a generated multi-step plan awaiting execution.
	StatePlanningPhase FlowState = "planning_phase"
	// StateExecutionPhase dispatches the gathered request to action handlers.
	StateExecutionPhase FlowState = "execution_phase"
	// StateCompleted is the terminal state.
	StateCompleted FlowState = "completed"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a session's history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationContext is the per-session record mutated by the orchestrator
// during turn processing. It is not safe for concurrent mutation; the host
// must serialize turns per session id.
type ConversationContext struct {
	ID           string         `json:"id"`
	State        FlowState      `json:"state"`
	Intent       string         `json:"intent,omitempty"`
	GatheredData map[string]any `json:"gathered_data"`
	History      []Turn         `json:"history"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewContext creates a fresh context in the initial state.
func NewContext(id string) *ConversationContext {
	now := time.Now().UTC()
	return &ConversationContext{
		ID:           id,
		State:        StateIntentDetection,
		GatheredData: make(map[string]any),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AppendTurn records a message in the session history.
func (c *ConversationContext) AppendTurn(role, content string) {
	c.History = append(c.History, Turn{Role: role, Content: content, Timestamp: time.Now().UTC()})
	c.UpdatedAt = time.Now().UTC()
}

// SetField stores a gathered field. Existing keys are overwritten; this is
// the only way a gathered value changes within a session.
func (c *ConversationContext) SetField(key string, value any) {
	if c.GatheredData == nil {
		c.GatheredData = make(map[string]any)
	}
	c.GatheredData[key] = value
	c.UpdatedAt = time.Now().UTC()
}

// HasField reports key presence, not truthiness: a stored nil counts.
func (c *ConversationContext) HasField(key string) bool {
	_, ok := c.GatheredData[key]
	return ok
}

// Field returns a gathered value and whether it is present.
func (c *ConversationContext) Field(key string) (any, bool) {
	v, ok := c.GatheredData[key]
	return v, ok
}

// StringField returns a gathered value as a string, or "" when absent or not
// a string.
func (c *ConversationContext) StringField(key string) string {
	if v, ok := c.GatheredData[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// LastTurns returns up to n most recent turns, oldest first.
func (c *ConversationContext) LastTurns(n int) []Turn {
	if n <= 0 || len(c.History) == 0 {
		return nil
	}
	if len(c.History) <= n {
		return c.History
	}
	return c.History[len(c.History)-n:]
}

// DataSnapshot returns a shallow copy of the gathered data. Step handlers
// receive snapshots so a step cannot mutate shared state behind the
// executor's back.
func (c *ConversationContext) DataSnapshot() map[string]any {
	snap := make(map[string]any, len(c.GatheredData))
	for k, v := range c.GatheredData {
		snap[k] = v
	}
	return snap
}
