package slots

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultTemplates returns the built-in clarification question per field.
func defaultTemplates() map[string]string {
	return map[string]string{
		"name":        "What should the project be called? (name)",
		"sprint_name": "Which sprint is this for? Give me its name. (sprint_name)",
		"capacity":    "How much capacity does the team have for this sprint, in story points? (capacity)",
		"task_id":     "Which task should I update? Share its id. (task_id)",
		"sprint_id":   "Which sprint should I update? Share its id. (sprint_id)",
		"topic":       "What topic should I research? (topic)",
	}
}

// LoadTemplates overlays clarification templates from a YAML file onto the
// engine's defaults. The file maps field name to question text; unknown
// fields are accepted so deployments can template custom slots. A missing
// path is not an error — defaults stay in place.
func (e *Engine) LoadTemplates(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read clarification templates: %w", err)
	}

	overrides := map[string]string{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse clarification templates %s: %w", path, err)
	}
	for field, question := range overrides {
		if question != "" {
			e.templates[field] = question
		}
	}
	return nil
}
