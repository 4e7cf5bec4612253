package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a step of a generation run.
type Stage string

const (
	StageResolve  Stage = "resolve"
	StagePreHook  Stage = "prehook"
	StageRender   Stage = "render"
	StagePostHook Stage = "posthook"
)

// StageError records which stage of a generation run failed.
type StageError struct {
	// Stage is the failing step.
	Stage Stage

	// Err is the underlying error, usually a DetailError.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage err was raised in, or "" when err did not come
// from a generation run.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
