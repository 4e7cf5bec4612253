// Package errors provides the error taxonomy for the stamp CLI.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DetailError captures structured error information.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Location is the file or tree path the error relates to (optional).
	Location string

	// Field is the schema key the error relates to (optional).
	Field string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Cause is the sentinel classifying the error (optional).
	Cause error

	// Err is the underlying error that triggered this one (optional).
	Err error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	var b strings.Builder

	b.WriteString("Error: ")
	b.WriteString(e.Type)
	b.WriteString("\n")

	if e.Location != "" {
		b.WriteString("  Location: ")
		b.WriteString(e.Location)
		b.WriteString("\n")
	}
	if e.Field != "" {
		b.WriteString("  Field: ")
		b.WriteString(e.Field)
		b.WriteString("\n")
	}

	// Sorted so repeated runs print identical output.
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Context[k])
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Err != nil {
		b.WriteString("  Cause: ")
		b.WriteString(e.Err.Error())
		b.WriteString("\n")
	}

	if e.Hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(e.Hint)
		b.WriteString("\n")
	}

	return b.String()
}

// Unwrap returns the sentinel and the underlying error.
func (e *DetailError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Summary returns a single-line rendering suitable for table cells.
func (e *DetailError) Summary() string {
	var b strings.Builder
	b.WriteString(e.Type)
	if e.Field != "" {
		b.WriteString(" [")
		b.WriteString(e.Field)
		b.WriteString("]")
	}
	if e.Location != "" {
		b.WriteString(" at ")
		b.WriteString(e.Location)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// NewValidationError creates a validation error with details.
func NewValidationError(message, location, field, hint string) error {
	return &DetailError{
		Type:     "validation failed",
		Message:  message,
		Location: location,
		Field:    field,
		Hint:     hint,
		Cause:    ErrValidation,
	}
}

// NewNotFoundError creates a not found error with details.
func NewNotFoundError(message, location, hint string) error {
	return &DetailError{
		Type:     "not found",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrNotFound,
	}
}

// NewInvalidChoiceError reports an answer that is not one of the allowed choices.
func NewInvalidChoiceError(key, value string, choices []string) error {
	return &DetailError{
		Type:    "InvalidChoice",
		Message: fmt.Sprintf("%q is not an allowed value", value),
		Field:   key,
		Hint:    fmt.Sprintf("Valid choices: %s", strings.Join(choices, ", ")),
		Cause:   ErrInvalidChoice,
	}
}

// NewDerivationCycleError reports a dependency cycle among derived values.
// The cycle lists keys in dependency order, ending where it started.
func NewDerivationCycleError(cycle []string) error {
	field := ""
	if len(cycle) > 0 {
		field = cycle[0]
	}
	return &DetailError{
		Type:    "DerivationCycle",
		Message: fmt.Sprintf("derived values depend on each other: %s", strings.Join(cycle, " -> ")),
		Field:   field,
		Hint:    "Break the cycle by deriving one of the values from a primary answer only.",
		Cause:   ErrDerivationCycle,
	}
}

// NewUnresolvedVariableError reports a template reference to an unknown key.
func NewUnresolvedVariableError(key, location string) error {
	return &DetailError{
		Type:     "UnresolvedVariable",
		Message:  fmt.Sprintf("template references undefined variable %q", key),
		Location: location,
		Field:    key,
		Hint:     "Declare the variable in the schema or fix the reference.",
		Cause:    ErrUnresolvedVariable,
	}
}

// NewInvalidContextError reports a context value rejected by the pre-generation hook.
func NewInvalidContextError(key, value, reason string) error {
	return &DetailError{
		Type:    "InvalidContext",
		Message: fmt.Sprintf("value %q %s", value, reason),
		Field:   key,
		Cause:   ErrInvalidContext,
	}
}

// NewPruneFailureError reports a tree path the post-generation hook could not handle.
func NewPruneFailureError(path, message string, err error) error {
	return &DetailError{
		Type:     "PruneFailure",
		Message:  message,
		Location: path,
		Hint:     "The generated output is incomplete and has been discarded.",
		Cause:    ErrPruneFailure,
		Err:      err,
	}
}

// NewRuleConflictError reports two prune rules that disagree about a path.
func NewRuleConflictError(ruleA, ruleB, path, detail string) error {
	return &DetailError{
		Type:     "RuleConflict",
		Message:  fmt.Sprintf("rules %q and %q disagree: %s", ruleA, ruleB, detail),
		Location: path,
		Hint:     "Give rules that touch the same path identical conditions, or nest them so the outer rule implies the inner one.",
		Cause:    ErrRuleConflict,
	}
}

// Kind returns the taxonomy name of err, or "Error" when it is unclassified.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidChoice):
		return "InvalidChoice"
	case errors.Is(err, ErrDerivationCycle):
		return "DerivationCycle"
	case errors.Is(err, ErrUnresolvedVariable):
		return "UnresolvedVariable"
	case errors.Is(err, ErrInvalidContext):
		return "InvalidContext"
	case errors.Is(err, ErrPruneFailure):
		return "PruneFailure"
	case errors.Is(err, ErrRuleConflict):
		return "RuleConflict"
	case errors.Is(err, ErrValidation):
		return "Validation"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	default:
		return "Error"
	}
}

// Summary returns a single-line description of err.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var detail *DetailError
	if errors.As(err, &detail) {
		return detail.Summary()
	}
	return strings.ReplaceAll(strings.TrimSpace(err.Error()), "\n", " ")
}
