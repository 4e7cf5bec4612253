package resolve

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/opmodel/stamp/internal/engine"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/schema"
)

var eng = engine.New()

// Resolve fills every schema key from answers or its default, validates
// choice values, and computes derived values. It has no side effects and is
// deterministic: equal inputs produce Equal contexts.
func Resolve(s *schema.Schema, answers map[string]string) (RenderContext, error) {
	var unknown []string
	for k := range answers {
		if !s.Has(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return RenderContext{}, oerrors.NewValidationError(
			fmt.Sprintf("unknown variable(s): %s", strings.Join(unknown, ", ")),
			s.Source(), unknown[0],
			fmt.Sprintf("Known variables: %s", strings.Join(s.Keys(), ", ")))
	}

	keys := s.Keys()
	values := make(map[string]string, len(keys))
	for _, e := range s.Entries() {
		v, ok := answers[e.Key]
		if !ok {
			v = e.Default
		}
		if e.Kind == schema.SingleChoice && !e.HasChoice(v) {
			return RenderContext{}, oerrors.NewInvalidChoiceError(e.Key, v, e.Choices)
		}
		values[e.Key] = v
	}

	order, err := DerivationOrder(s)
	if err != nil {
		return RenderContext{}, err
	}

	exprs := make(map[string]string)
	for _, d := range s.Derived() {
		exprs[d.Key] = d.Expr
	}
	for _, key := range order {
		v, err := eng.Render(derivedLocation(key), exprs[key], values)
		if err != nil {
			return RenderContext{}, err
		}
		values[key] = v
		keys = append(keys, key)
	}

	return NewContext(keys, values), nil
}

// Defaults resolves the schema with no answers.
func Defaults(s *schema.Schema) (RenderContext, error) {
	return Resolve(s, nil)
}

// Answers returns the primary values of rc as a plain map, dropping derived keys.
func Answers(s *schema.Schema, rc RenderContext) map[string]string {
	out := make(map[string]string, s.Len())
	for _, k := range s.Keys() {
		out[k] = rc.Value(k)
	}
	return out
}

// MergeAnswers layers answer sets; later sets win.
func MergeAnswers(sets ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, set := range sets {
		maps.Copy(out, set)
	}
	return out
}

func derivedLocation(key string) string {
	return "_derived." + key
}
