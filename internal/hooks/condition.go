// Package hooks implements the pre-generation gate and the post-generation
// pruner configured by a template's hooks.yaml.
package hooks

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/opmodel/stamp/internal/resolve"
)

// Condition is a pure predicate over a RenderContext.
type Condition interface {
	// Eval evaluates the condition.
	Eval(rc resolve.RenderContext) (bool, error)

	// Keys returns the context keys the condition reads by name.
	Keys() []string

	String() string
}

// Equals holds when Key has Value.
type Equals struct {
	Key   string
	Value string
}

func (c Equals) Eval(rc resolve.RenderContext) (bool, error) {
	return rc.Value(c.Key) == c.Value, nil
}

func (c Equals) Keys() []string { return []string{c.Key} }

func (c Equals) String() string { return fmt.Sprintf("%s == %q", c.Key, c.Value) }

// NotEquals holds when Key does not have Value.
type NotEquals struct {
	Key   string
	Value string
}

func (c NotEquals) Eval(rc resolve.RenderContext) (bool, error) {
	return rc.Value(c.Key) != c.Value, nil
}

func (c NotEquals) Keys() []string { return []string{c.Key} }

func (c NotEquals) String() string { return fmt.Sprintf("%s != %q", c.Key, c.Value) }

// In holds when Key has one of Values.
type In struct {
	Key    string
	Values []string
}

func (c In) Eval(rc resolve.RenderContext) (bool, error) {
	return slices.Contains(c.Values, rc.Value(c.Key)), nil
}

func (c In) Keys() []string { return []string{c.Key} }

func (c In) String() string {
	return fmt.Sprintf("%s in [%s]", c.Key, strings.Join(c.Values, ", "))
}

// All holds when every condition holds. An empty All holds.
type All []Condition

func (c All) Eval(rc resolve.RenderContext) (bool, error) {
	for _, sub := range c {
		ok, err := sub.Eval(rc)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c All) Keys() []string { return joinKeys(c) }

func (c All) String() string { return joinStrings(c, " && ") }

// Any holds when at least one condition holds. An empty Any does not hold.
type Any []Condition

func (c Any) Eval(rc resolve.RenderContext) (bool, error) {
	for _, sub := range c {
		ok, err := sub.Eval(rc)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c Any) Keys() []string { return joinKeys(c) }

func (c Any) String() string { return joinStrings(c, " || ") }

// Not negates a condition.
type Not struct {
	Cond Condition
}

func (c Not) Eval(rc resolve.RenderContext) (bool, error) {
	ok, err := c.Cond.Eval(rc)
	return !ok, err
}

func (c Not) Keys() []string { return c.Cond.Keys() }

func (c Not) String() string { return "!(" + c.Cond.String() + ")" }

// Always holds unconditionally.
type Always struct{}

func (Always) Eval(resolve.RenderContext) (bool, error) { return true, nil }

func (Always) Keys() []string { return nil }

func (Always) String() string { return "always" }

// Expr is a CUE expression evaluated with the context's values in scope,
// e.g. `layout == "src" && dockerfile == "y"`. It must evaluate to a bool.
type Expr struct {
	Source string
}

// Eval compiles and evaluates the expression in a fresh CUE context, so
// concurrent evaluations share no runtime state.
func (c Expr) Eval(rc resolve.RenderContext) (bool, error) {
	cctx := cuecontext.New()

	scope := make(map[string]string, rc.Len())
	for k, v := range rc.Values() {
		// Underscore keys would be hidden fields in CUE.
		if !strings.HasPrefix(k, "_") {
			scope[k] = v
		}
	}

	v := cctx.CompileString(c.Source, cue.Scope(cctx.Encode(scope)))
	if err := v.Err(); err != nil {
		return false, fmt.Errorf("evaluating expr %q: %w", c.Source, err)
	}
	b, err := v.Bool()
	if err != nil {
		return false, fmt.Errorf("expr %q must evaluate to a bool: %w", c.Source, err)
	}
	return b, nil
}

func (c Expr) Keys() []string { return nil }

func (c Expr) String() string { return "expr(" + c.Source + ")" }

func joinKeys(conds []Condition) []string {
	var keys []string
	for _, c := range conds {
		for _, k := range c.Keys() {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func joinStrings(conds []Condition, sep string) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// ParseCondition decodes a condition from its YAML form:
//
//	{key: k, equals: v} | {key: k, notEquals: v} | {key: k, in: [v...]}
//	{all: [...]} | {any: [...]} | {not: {...}} | {expr: "<cue>"}
//
// A nil or empty node is Always.
func ParseCondition(n *yaml.Node) (Condition, error) {
	if n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null") {
		return Always{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: condition must be a mapping", n.Line)
	}

	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields[n.Content[i].Value] = n.Content[i+1]
	}

	switch {
	case fields["all"] != nil, fields["any"] != nil:
		if len(fields) != 1 {
			return nil, fmt.Errorf("line %d: all/any must be the only field", n.Line)
		}
		list := fields["all"]
		if list == nil {
			list = fields["any"]
		}
		if list.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: all/any expects a list", list.Line)
		}
		conds := make([]Condition, 0, len(list.Content))
		for _, item := range list.Content {
			c, err := ParseCondition(item)
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
		}
		if fields["all"] != nil {
			return All(conds), nil
		}
		return Any(conds), nil

	case fields["not"] != nil:
		if len(fields) != 1 {
			return nil, fmt.Errorf("line %d: not must be the only field", n.Line)
		}
		c, err := ParseCondition(fields["not"])
		if err != nil {
			return nil, err
		}
		return Not{Cond: c}, nil

	case fields["expr"] != nil:
		if len(fields) != 1 || fields["expr"].Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: expr must be a single string", n.Line)
		}
		return Expr{Source: fields["expr"].Value}, nil

	case fields["key"] != nil:
		key := fields["key"].Value
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: key needs exactly one of equals, notEquals or in", n.Line)
		}
		switch {
		case fields["equals"] != nil:
			return Equals{Key: key, Value: fields["equals"].Value}, nil
		case fields["notEquals"] != nil:
			return NotEquals{Key: key, Value: fields["notEquals"].Value}, nil
		case fields["in"] != nil:
			list := fields["in"]
			if list.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("line %d: in expects a list", list.Line)
			}
			vals := make([]string, len(list.Content))
			for i, item := range list.Content {
				vals[i] = item.Value
			}
			return In{Key: key, Values: vals}, nil
		}
		return nil, fmt.Errorf("line %d: key needs exactly one of equals, notEquals or in", n.Line)

	default:
		return nil, fmt.Errorf("line %d: unrecognized condition", n.Line)
	}
}
