package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates a malformed schema, manifest or configuration.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a template, file or variable was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidChoice indicates an answer outside the schema's allowed choices.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrDerivationCycle indicates derived values that depend on each other.
	ErrDerivationCycle = errors.New("derivation cycle")

	// ErrUnresolvedVariable indicates a template reference to an undefined context key.
	ErrUnresolvedVariable = errors.New("unresolved variable")

	// ErrInvalidContext indicates a pre-generation hook rejected the resolved context.
	ErrInvalidContext = errors.New("invalid context")

	// ErrPruneFailure indicates the post-generation hook could not remove or rewrite a path.
	ErrPruneFailure = errors.New("prune failure")

	// ErrRuleConflict indicates two prune rules target the same path under contradictory conditions.
	ErrRuleConflict = errors.New("rule conflict")
)
