package hooks

import (
	"fmt"
	"regexp"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/opmodel/stamp/internal/engine"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/resolve"
	"github.com/opmodel/stamp/internal/schema"
)

// FileName is the hooks manifest file inside a template directory.
const FileName = "hooks.yaml"

// Clock-derived keys available to rewrites.
const (
	KeyDate      = "_date"
	KeyYear      = "_year"
	KeyTimestamp = "_timestamp"
)

// ClockKeys lists the keys added to the context for rewrites.
var ClockKeys = []string{KeyDate, KeyYear, KeyTimestamp}

// Manifest is the parsed hooks configuration of a template.
type Manifest struct {
	Validation Validation
	Rules      []PruneRule
	Rewrites   []Rewrite
}

// Validation configures the pre-generation gate.
type Validation struct {
	// Identifiers lists keys whose values must be lowercase identifiers.
	Identifiers []string

	// Reserved maps keys to names their values must not take (case insensitive).
	Reserved map[string][]string

	// Patterns maps keys to regular expressions their values must match.
	Patterns map[string]*regexp.Regexp
}

// PruneRule removes its targets from the generated tree when its condition holds.
type PruneRule struct {
	Name string
	When Condition

	// Remove lists tree paths relative to the project root. They may contain
	// substitution markers.
	Remove []string
}

// Rewrite replaces text in a generated file.
type Rewrite struct {
	Path string
	Old  string
	New  string
	When Condition
}

type rawManifest struct {
	Validate struct {
		Identifiers []string            `yaml:"identifiers"`
		Reserved    map[string][]string `yaml:"reserved"`
		Patterns    map[string]string   `yaml:"patterns"`
	} `yaml:"validate"`
	Rules []struct {
		Name   string    `yaml:"name"`
		When   yaml.Node `yaml:"when"`
		Remove []string  `yaml:"remove"`
	} `yaml:"rules"`
	Rewrites []struct {
		Path string    `yaml:"path"`
		Old  string    `yaml:"old"`
		New  string    `yaml:"new"`
		When yaml.Node `yaml:"when"`
	} `yaml:"rewrites"`
}

// Parse decodes a manifest and checks it against the schema: every key it
// names must exist, compared values must be valid choices, and every
// template string may only reference known variables.
func Parse(data []byte, source string, s *schema.Schema) (*Manifest, error) {
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "hooks manifest could not be parsed",
			Location: source,
			Cause:    oerrors.ErrValidation,
			Err:      err,
		}
	}

	invalid := func(field, msg string) error {
		return oerrors.NewValidationError(msg, source, field, "")
	}

	m := &Manifest{
		Validation: Validation{
			Identifiers: raw.Validate.Identifiers,
			Reserved:    raw.Validate.Reserved,
			Patterns:    make(map[string]*regexp.Regexp, len(raw.Validate.Patterns)),
		},
	}

	for _, k := range raw.Validate.Identifiers {
		if !s.HasKey(k) {
			return nil, invalid(k, fmt.Sprintf("validate.identifiers names unknown variable %q", k))
		}
	}
	for k := range raw.Validate.Reserved {
		if !s.HasKey(k) {
			return nil, invalid(k, fmt.Sprintf("validate.reserved names unknown variable %q", k))
		}
	}
	for k, expr := range raw.Validate.Patterns {
		if !s.HasKey(k) {
			return nil, invalid(k, fmt.Sprintf("validate.patterns names unknown variable %q", k))
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, invalid(k, fmt.Sprintf("invalid pattern %q: %v", expr, err))
		}
		m.Validation.Patterns[k] = re
	}

	eng := engine.New()
	keys := s.AllKeys()
	defaults, err := resolve.Defaults(s)
	if err != nil {
		return nil, err
	}

	for i, r := range raw.Rules {
		if r.Name == "" {
			return nil, invalid("", fmt.Sprintf("rule #%d has no name", i+1))
		}
		if slices.ContainsFunc(m.Rules, func(p PruneRule) bool { return p.Name == r.Name }) {
			return nil, invalid(r.Name, fmt.Sprintf("duplicate rule name %q", r.Name))
		}
		if r.When.Kind == 0 {
			return nil, invalid(r.Name, fmt.Sprintf("rule %q has no condition", r.Name))
		}
		if len(r.Remove) == 0 {
			return nil, invalid(r.Name, fmt.Sprintf("rule %q removes nothing", r.Name))
		}
		cond, err := ParseCondition(&r.When)
		if err != nil {
			return nil, invalid(r.Name, fmt.Sprintf("rule %q: %v", r.Name, err))
		}
		if err := checkCondition(cond, s, defaults); err != nil {
			return nil, invalid(r.Name, fmt.Sprintf("rule %q: %v", r.Name, err))
		}
		for _, target := range r.Remove {
			if err := eng.Check(ruleLocation(r.Name), target, keys); err != nil {
				return nil, err
			}
		}
		m.Rules = append(m.Rules, PruneRule{Name: r.Name, When: cond, Remove: r.Remove})
	}

	rewriteKeys := append(slices.Clone(keys), ClockKeys...)
	for i, rw := range raw.Rewrites {
		loc := fmt.Sprintf("rewrites[%d]", i)
		if rw.Path == "" || rw.Old == "" {
			return nil, invalid(loc, "rewrite needs a path and old text")
		}
		cond, err := ParseCondition(&rw.When)
		if err != nil {
			return nil, invalid(loc, err.Error())
		}
		if err := checkCondition(cond, s, defaults); err != nil {
			return nil, invalid(loc, err.Error())
		}
		for _, text := range []string{rw.Path, rw.Old, rw.New} {
			if err := eng.Check(loc, text, rewriteKeys); err != nil {
				return nil, err
			}
		}
		m.Rewrites = append(m.Rewrites, Rewrite{Path: rw.Path, Old: rw.Old, New: rw.New, When: cond})
	}

	return m, nil
}

// checkCondition verifies named keys and compared values against the schema,
// and that expressions evaluate against the default context.
func checkCondition(c Condition, s *schema.Schema, defaults resolve.RenderContext) error {
	checkValue := func(key string, values ...string) error {
		if !s.HasKey(key) {
			return fmt.Errorf("unknown variable %q", key)
		}
		e, ok := s.Entry(key)
		if !ok || e.Kind != schema.SingleChoice {
			return nil
		}
		for _, v := range values {
			if !e.HasChoice(v) {
				return fmt.Errorf("%q is never a value of %s", v, key)
			}
		}
		return nil
	}

	switch c := c.(type) {
	case Equals:
		return checkValue(c.Key, c.Value)
	case NotEquals:
		return checkValue(c.Key, c.Value)
	case In:
		return checkValue(c.Key, c.Values...)
	case All:
		for _, sub := range c {
			if err := checkCondition(sub, s, defaults); err != nil {
				return err
			}
		}
	case Any:
		for _, sub := range c {
			if err := checkCondition(sub, s, defaults); err != nil {
				return err
			}
		}
	case Not:
		return checkCondition(c.Cond, s, defaults)
	case Expr:
		_, err := c.Eval(defaults)
		return err
	}
	return nil
}

// ReservedKeys returns the keys with reserved names, sorted.
func (v Validation) ReservedKeys() []string {
	keys := make([]string, 0, len(v.Reserved))
	for k := range v.Reserved {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PatternKeys returns the keys with patterns, sorted.
func (v Validation) PatternKeys() []string {
	keys := make([]string, 0, len(v.Patterns))
	for k := range v.Patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func ruleLocation(name string) string {
	return "rules." + name
}
