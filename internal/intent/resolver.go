package intent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/taskloop/taskloop/internal/oracle"
	"github.com/taskloop/taskloop/internal/session"
)

// keywordRule maps phrase patterns to an intent. Rules are evaluated in
// order; the first match wins.
type keywordRule struct {
	intent   Type
	patterns []*regexp.Regexp
}

func rule(t Type, exprs ...string) keywordRule {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		compiled[i] = regexp.MustCompile(`(?i)` + e)
	}
	return keywordRule{intent: t, patterns: compiled}
}

// keywordRules is the tier-2 fallback table. More specific rules come first
// so "plan the next sprint" does not land on create-project.
var keywordRules = []keywordRule{
	rule(CreateWBS, `\bwbs\b`, `work\s+breakdown`, `break\s+(this|it|the\s+\w+)?\s*down`),
	rule(SprintPlanning, `\bsprint\s+plan`, `\bplan\b.*\bsprint\b`),
	rule(UpdateSprint, `(update|change|modify|rename)\b.*\bsprint\b`),
	rule(UpdateTask, `(update|change|modify|move|assign|close)\b.*\btask\b`),
	rule(ListSprints, `(list|show|view)\b.*\bsprints?\b`),
	rule(ListTasks, `(list|show|view)\b.*\btasks?\b`, `what.*\bworking on\b`),
	rule(CreateReport, `\breport\b`),
	rule(ResearchTopic, `\bresearch\b`, `\binvestigate\b`, `look\s+into`),
	rule(GetStatus, `\bstatus\b`, `\bprogress\b`, `how\s+(is|are)\s+.*\b(going|doing)\b`),
	rule(CreateProject, `(create|new|start|set\s+up)\b.*\bproject\b`),
	rule(Help, `\bhelp\b`, `what\s+can\s+you\s+do`),
}

// Resolver classifies messages into intents: tier 1 asks the classification
// oracle, tier 2 falls back to the keyword table. Classify never fails; any
// internal failure degrades to tier 2 and ultimately to Unknown.
type Resolver struct {
	classifier oracle.Classifier
}

// NewResolver creates a Resolver. A nil classifier skips tier 1 entirely.
func NewResolver(classifier oracle.Classifier) *Resolver {
	return &Resolver{classifier: classifier}
}

// Classify resolves the message to a concrete intent.
func (r *Resolver) Classify(ctx context.Context, message string, history []session.Turn) Type {
	if r.classifier != nil {
		raw, err := r.classifier.Classify(ctx, classifyPrompt(message, history))
		if err == nil {
			if t, ok := Parse(normalizeToken(raw)); ok {
				return t
			}
			slog.Debug("classifier returned unparseable intent", "raw", raw)
		} else {
			slog.Debug("classifier degraded to keyword matching", "kind", oracle.KindOf(err), "error", err)
		}
	}
	return MatchKeywords(message)
}

// MatchKeywords is the deterministic tier-2 classifier.
func MatchKeywords(message string) Type {
	for _, kr := range keywordRules {
		for _, p := range kr.patterns {
			if p.MatchString(message) {
				return kr.intent
			}
		}
	}
	return Unknown
}

// classifyPrompt enumerates every intent with its description plus the last
// two history turns, and asks for exactly one token back.
func classifyPrompt(message string, history []session.Turn) string {
	var sb strings.Builder
	sb.WriteString("Classify the user's request into exactly one of these intents:\n\n")
	for _, t := range All() {
		fmt.Fprintf(&sb, "- %s: %s\n", t, Description(t))
	}
	if n := len(history); n > 0 {
		sb.WriteString("\nRecent conversation:\n")
		start := n - 2
		if start < 0 {
			start = 0
		}
		for _, turn := range history[start:] {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
	}
	fmt.Fprintf(&sb, "\nUser message: %s\n\nRespond with only the intent token, nothing else.", message)
	return sb.String()
}

// normalizeToken reduces oracle output to a candidate intent token: first
// line, first word, lowercased, stripped of quotes and punctuation.
func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if i := strings.IndexAny(token, "\r\n"); i >= 0 {
		token = token[:i]
	}
	if i := strings.IndexByte(token, ' '); i >= 0 {
		token = token[:i]
	}
	token = strings.Trim(token, "\"'`.,:")
	return strings.ToLower(token)
}
