// Package planner turns a raw user message into a validated multi-step
// execution plan, bypassing single-intent classification.
package planner

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validation for non-empty trimmed strings
	_ = validate.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s != ""
	})
}

// ExecutionPlan is an ordered sequence of typed steps produced in one shot.
// Steps are executed strictly in the given order.
type ExecutionPlan struct {
	// Locale tags the language the plan was produced in (BCP 47).
	Locale string `json:"locale,omitempty"`

	// Rationale explains why the plan was shaped this way.
	Rationale string `json:"rationale" validate:"required,nonempty"`

	// Steps run in list order; execution never reorders or skips them.
	Steps []Step `json:"steps" validate:"required,min=1,max=20,dive"`
}

// Step is one unit of a plan. Type is matched against the action dispatch
// table at execution time; an unrecognized type becomes an error result, not
// a generation failure.
type Step struct {
	Type            string `json:"step_type" validate:"required,nonempty"`
	Title           string `json:"title" validate:"required,nonempty,max=200"`
	Description     string `json:"description,omitempty"`
	RequiresContext bool   `json:"requires_context,omitempty"`
}

// ValidationError provides structured error information for schema validation failures
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationResult contains the result of schema validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the plan against the schema rules.
func (p *ExecutionPlan) Validate() ValidationResult {
	return validateStruct(p)
}

// validateStruct is a helper that validates any struct and returns ValidationResult
func validateStruct(s any) ValidationResult {
	err := validate.Struct(s)
	if err == nil {
		return ValidationResult{Valid: true}
	}

	var errors []ValidationError
	for _, err := range err.(validator.ValidationErrors) {
		errors = append(errors, ValidationError{
			Field:   err.Field(),
			Tag:     err.Tag(),
			Value:   err.Value(),
			Message: formatValidationError(err),
		})
	}

	return ValidationResult{
		Valid:  false,
		Errors: errors,
	}
}

// formatValidationError creates a human-readable error message
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "nonempty":
		return fmt.Sprintf("%s cannot be empty or whitespace", err.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s items", err.Field(), err.Param())
	case "max":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must have at most %s items", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", err.Field(), err.Tag())
	}
}

// ErrorSummary returns a single string summarizing all validation errors
func (r ValidationResult) ErrorSummary() string {
	if r.Valid {
		return ""
	}
	var parts []string
	for _, e := range r.Errors {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}
