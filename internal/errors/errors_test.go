//nolint:revive // Package name matches the package it tests
package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	all := []error{
		ErrValidation, ErrNotFound, ErrInvalidChoice, ErrDerivationCycle,
		ErrUnresolvedVariable, ErrInvalidContext, ErrPruneFailure, ErrRuleConflict,
	}
	for i := range all {
		for j := range all {
			if i != j {
				assert.NotEqual(t, all[i], all[j])
			}
		}
	}
}

func TestDetailErrorError(t *testing.T) {
	detail := &DetailError{
		Type:     "InvalidChoice",
		Message:  "invalid value",
		Location: "schema.yaml",
		Field:    "dockerfile",
		Context:  map[string]string{"Template": "python"},
		Hint:     "Valid choices: y, n",
	}

	output := detail.Error()

	assert.Contains(t, output, "Error: InvalidChoice")
	assert.Contains(t, output, "Location: schema.yaml")
	assert.Contains(t, output, "Field: dockerfile")
	assert.Contains(t, output, "Template: python")
	assert.Contains(t, output, "invalid value")
	assert.Contains(t, output, "Hint: Valid choices: y, n")
}

func TestDetailErrorUnwrap(t *testing.T) {
	underlying := fmt.Errorf("permission denied")
	detail := &DetailError{
		Type:    "PruneFailure",
		Message: "removing target",
		Cause:   ErrPruneFailure,
		Err:     underlying,
	}

	assert.True(t, errors.Is(detail, ErrPruneFailure))
	assert.True(t, errors.Is(detail, underlying))
	assert.Len(t, detail.Unwrap(), 2)
}

func TestNewInvalidChoiceError(t *testing.T) {
	err := NewInvalidChoiceError("dockerfile", "maybe", []string{"y", "n"})

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrInvalidChoice))

	var detail *DetailError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "dockerfile", detail.Field)
	assert.Contains(t, detail.Message, "maybe")
	assert.Contains(t, detail.Hint, "y, n")
}

func TestNewDerivationCycleError(t *testing.T) {
	err := NewDerivationCycleError([]string{"a", "b", "a"})

	assert.True(t, errors.Is(err, ErrDerivationCycle))
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestNewPruneFailureError_NamesPath(t *testing.T) {
	err := NewPruneFailureError("docs/index.md", "removing target", fmt.Errorf("busy"))

	assert.True(t, errors.Is(err, ErrPruneFailure))
	assert.Contains(t, Summary(err), "docs/index.md")
	assert.Contains(t, Summary(err), "busy")
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"choice", NewInvalidChoiceError("k", "v", nil), "InvalidChoice"},
		{"cycle", NewDerivationCycleError([]string{"a", "a"}), "DerivationCycle"},
		{"unresolved", NewUnresolvedVariableError("k", "f"), "UnresolvedVariable"},
		{"context", NewInvalidContextError("k", "v", "is reserved"), "InvalidContext"},
		{"prune", NewPruneFailureError("p", "m", nil), "PruneFailure"},
		{"conflict", NewRuleConflictError("a", "b", "p", "d"), "RuleConflict"},
		{"wrapped", fmt.Errorf("outer: %w", NewInvalidChoiceError("k", "v", nil)), "InvalidChoice"},
		{"plain", fmt.Errorf("boom"), "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
