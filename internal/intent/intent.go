// Package intent defines the closed set of user intents and resolves free-form
// messages to one of them.
package intent

// Type is a closed-set classification of what the user wants.
type Type string

const (
	CreateProject  Type = "create-project"
	CreateWBS      Type = "create-wbs"
	SprintPlanning Type = "sprint-planning"
	UpdateTask     Type = "update-task"
	UpdateSprint   Type = "update-sprint"
	ListTasks      Type = "list-tasks"
	ListSprints    Type = "list-sprints"
	GetStatus      Type = "get-status"
	CreateReport   Type = "create-report"
	ResearchTopic  Type = "research-topic"
	Help           Type = "help"
	// Unknown is the catch-all; it never causes a hard failure.
	Unknown Type = "unknown"
)

// descriptions drive the classification prompt and the help response.
var descriptions = map[Type]string{
	CreateProject:  "Create a new project",
	CreateWBS:      "Generate a work breakdown structure for a goal",
	SprintPlanning: "Plan a sprint with capacity-based task assignment",
	UpdateTask:     "Update an existing task",
	UpdateSprint:   "Update an existing sprint",
	ListTasks:      "List tasks, optionally filtered",
	ListSprints:    "List sprints",
	GetStatus:      "Fetch current project or task status",
	CreateReport:   "Generate a progress report",
	ResearchTopic:  "Research a topic and summarize findings",
	Help:           "Explain what the assistant can do",
	Unknown:        "Anything that does not match another intent",
}

// All returns every intent in a stable order.
func All() []Type {
	return []Type{
		CreateProject, CreateWBS, SprintPlanning, UpdateTask, UpdateSprint,
		ListTasks, ListSprints, GetStatus, CreateReport, ResearchTopic,
		Help, Unknown,
	}
}

// Description returns the one-line description used in prompts.
func Description(t Type) string { return descriptions[t] }

// Parse returns the intent matching the token exactly, if any.
func Parse(token string) (Type, bool) {
	for _, t := range All() {
		if string(t) == token {
			return t, true
		}
	}
	return Unknown, false
}

// requiredFields maps each intent to its required slot names, in the order
// clarification questions should be asked. Absent intents require nothing.
var requiredFields = map[Type][]string{
	CreateProject:  {"name"},
	SprintPlanning: {"sprint_name", "capacity"},
	UpdateTask:     {"task_id"},
	UpdateSprint:   {"sprint_id"},
	ResearchTopic:  {"topic"},
}

// RequiredFields returns the required slot names for an intent, in table
// order. The result is a copy; callers may not mutate the table.
func RequiredFields(t Type) []string {
	fields, ok := requiredFields[t]
	if !ok {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// researchIntents require a background research pass before execution.
var researchIntents = map[Type]bool{
	CreateWBS:     true,
	ResearchTopic: true,
}

// RequiresResearch reports whether an intent runs the research phase.
func RequiresResearch(t Type) bool { return researchIntents[t] }
