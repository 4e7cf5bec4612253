package errors

import "errors"

// Exit codes returned by the stamp binary.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates a schema, answer, context or rule set was rejected.
	ExitValidationError = 2

	// ExitRenderError indicates a template could not be rendered.
	ExitRenderError = 3

	// ExitPruneError indicates the post-generation hook failed.
	ExitPruneError = 4

	// ExitNotFound indicates a template or file was not found.
	ExitNotFound = 5

	// ExitSweepFailed indicates at least one combination case did not pass.
	ExitSweepFailed = 6
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	// Code is the process exit code.
	Code int

	// Err is the wrapped error.
	Err error

	// Printed is set when the command already reported the error to the user.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidChoice),
		errors.Is(err, ErrDerivationCycle),
		errors.Is(err, ErrInvalidContext),
		errors.Is(err, ErrRuleConflict),
		errors.Is(err, ErrValidation):
		return ExitValidationError
	case errors.Is(err, ErrUnresolvedVariable):
		return ExitRenderError
	case errors.Is(err, ErrPruneFailure):
		return ExitPruneError
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	default:
		return ExitGeneralError
	}
}
