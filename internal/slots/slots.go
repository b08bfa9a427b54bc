// Package slots progressively collects the required parameters for an intent
// across conversation turns.
package slots

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskloop/taskloop/internal/intent"
	"github.com/taskloop/taskloop/internal/oracle"
	"github.com/taskloop/taskloop/internal/session"
	"github.com/taskloop/taskloop/internal/utils"
)

// fieldDescriptions documents each slot for the extraction prompt.
var fieldDescriptions = map[string]string{
	"name":        "the name of the project to create",
	"sprint_name": "the name of the sprint being planned",
	"capacity":    "the team capacity for the sprint, in story points",
	"task_id":     "the identifier of the task to update",
	"sprint_id":   "the identifier of the sprint to update",
	"topic":       "the subject to research",
}

// Engine extracts slot values from messages and decides when enough context
// exists to proceed.
type Engine struct {
	extractor oracle.Extractor
	templates map[string]string
}

// NewEngine creates an Engine. A nil extractor disables oracle extraction;
// every turn then yields no new fields, which only matters for intents with
// required slots.
func NewEngine(extractor oracle.Extractor) *Engine {
	return &Engine{extractor: extractor, templates: defaultTemplates()}
}

// Extract asks the extraction oracle for candidate slot values in the latest
// message. It returns only fields the intent actually requires, and never
// fails: any oracle or parse error yields an empty map.
func (e *Engine) Extract(ctx context.Context, message string, it intent.Type, gathered map[string]any) map[string]any {
	fields := intent.RequiredFields(it)
	if e.extractor == nil || len(fields) == 0 {
		return map[string]any{}
	}

	raw, err := e.extractor.Extract(ctx, extractionPrompt(message, fields, gathered))
	if err != nil {
		slog.Debug("slot extraction degraded to empty", "intent", it, "kind", oracle.KindOf(err), "error", err)
		return map[string]any{}
	}

	parsed, err := utils.ExtractAndParseJSON[map[string]any](raw)
	if err != nil {
		slog.Debug("slot extraction returned unparseable JSON", "intent", it, "error", err)
		return map[string]any{}
	}

	out := make(map[string]any)
	for _, f := range fields {
		if v, ok := parsed[f]; ok && v != nil {
			out[f] = v
		}
	}
	return out
}

// HasEnoughContext reports whether every required field for the context's
// intent is present in its gathered data. Presence, not truthiness.
func HasEnoughContext(ctx *session.ConversationContext) bool {
	return len(MissingFields(ctx)) == 0
}

// MissingFields returns required fields not yet gathered, in table order.
func MissingFields(ctx *session.ConversationContext) []string {
	var missing []string
	for _, f := range intent.RequiredFields(intent.Type(ctx.Intent)) {
		if !ctx.HasField(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Clarification builds a question for the first missing field: a canned
// template when one exists, otherwise a generic prompt naming the field.
func (e *Engine) Clarification(it intent.Type, missing []string, gathered map[string]any) string {
	if len(missing) == 0 {
		return ""
	}
	field := missing[0]
	if q, ok := e.templates[field]; ok {
		return q
	}
	return fmt.Sprintf("Could you tell me more about the %s?", strings.ReplaceAll(field, "_", " "))
}

// extractionPrompt describes the wanted fields and the data gathered so far,
// and demands strict JSON back.
func extractionPrompt(message string, fields []string, gathered map[string]any) string {
	var sb strings.Builder
	sb.WriteString("Extract the following fields from the user's message.\n\nFields:\n")
	for _, f := range fields {
		desc := fieldDescriptions[f]
		if desc == "" {
			desc = strings.ReplaceAll(f, "_", " ")
		}
		fmt.Fprintf(&sb, "- %s: %s\n", f, desc)
	}
	if len(gathered) > 0 {
		if data, err := json.Marshal(gathered); err == nil {
			fmt.Fprintf(&sb, "\nAlready gathered (do not repeat): %s\n", data)
		}
	}
	fmt.Fprintf(&sb, "\nUser message: %s\n\n", message)
	sb.WriteString("Respond with a single JSON object containing only the fields you found. Omit fields that are not in the message. No prose.")
	return sb.String()
}
