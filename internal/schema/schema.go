// Package schema defines the variable schema of a project template: every
// configurable option, its allowed values and its default.
package schema

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	oerrors "github.com/opmodel/stamp/internal/errors"
)

// Kind is the kind of a schema entry.
type Kind string

const (
	// FreeText accepts any string.
	FreeText Kind = "free_text"

	// SingleChoice accepts one of an ordered list of choices.
	SingleChoice Kind = "single_choice"
)

// keyRegex restricts keys to names addressable as template fields (.key).
var keyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Entry is one configurable option.
type Entry struct {
	// Key is the variable name, unique within the schema.
	Key string

	// Kind selects free text or single choice.
	Kind Kind

	// Choices lists the allowed values in declaration order (SingleChoice only).
	Choices []string

	// Default is used when no answer is supplied.
	Default string

	// Help is an optional prompt description.
	Help string
}

// HasChoice reports whether v is one of the entry's choices.
func (e Entry) HasChoice(v string) bool {
	return slices.Contains(e.Choices, v)
}

// Derived is a value computed from other context values before rendering.
type Derived struct {
	// Key is the derived variable name.
	Key string

	// Expr is a template string evaluated against the context.
	Expr string
}

// Schema is the ordered, validated set of template variables.
// It is immutable once constructed; accessors return copies.
type Schema struct {
	source            string
	entries           []Entry
	index             map[string]int
	derived           []Derived
	copyWithoutRender []string
}

// New builds and validates a schema. Source names where the schema came from, for errors.
func New(source string, entries []Entry, derived []Derived, copyWithoutRender []string) (*Schema, error) {
	s := &Schema{
		source:            source,
		entries:           make([]Entry, len(entries)),
		index:             make(map[string]int, len(entries)),
		derived:           slices.Clone(derived),
		copyWithoutRender: slices.Clone(copyWithoutRender),
	}
	for i, e := range entries {
		e.Choices = slices.Clone(e.Choices)
		s.entries[i] = e
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// validate enforces the entry invariants.
func (s *Schema) validate() error {
	for i, e := range s.entries {
		if !keyRegex.MatchString(e.Key) {
			return s.invalid(e.Key, fmt.Sprintf("invalid variable name %q", e.Key),
				"Names must start with a letter or underscore and contain only letters, digits and underscores.")
		}
		if _, dup := s.index[e.Key]; dup {
			return s.invalid(e.Key, fmt.Sprintf("duplicate variable %q", e.Key), "")
		}
		s.index[e.Key] = i

		switch e.Kind {
		case FreeText:
			if len(e.Choices) > 0 {
				return s.invalid(e.Key, "free text variable cannot declare choices", "")
			}
		case SingleChoice:
			if len(e.Choices) == 0 {
				return s.invalid(e.Key, "choice variable needs at least one choice", "")
			}
			seen := make(map[string]bool, len(e.Choices))
			for _, c := range e.Choices {
				if c == "" {
					return s.invalid(e.Key, "choices must not be empty strings", "")
				}
				if seen[c] {
					return s.invalid(e.Key, fmt.Sprintf("duplicate choice %q", c), "")
				}
				seen[c] = true
			}
			if !seen[e.Default] {
				return s.invalid(e.Key, fmt.Sprintf("default %q is not one of the choices", e.Default),
					fmt.Sprintf("Valid choices: %s", strings.Join(e.Choices, ", ")))
			}
		default:
			return s.invalid(e.Key, fmt.Sprintf("unknown kind %q", e.Kind), "")
		}
	}

	derivedSeen := make(map[string]bool, len(s.derived))
	for _, d := range s.derived {
		if !keyRegex.MatchString(d.Key) {
			return s.invalid(d.Key, fmt.Sprintf("invalid derived variable name %q", d.Key), "")
		}
		if _, clash := s.index[d.Key]; clash || derivedSeen[d.Key] {
			return s.invalid(d.Key, fmt.Sprintf("derived variable %q is declared twice", d.Key), "")
		}
		if strings.TrimSpace(d.Expr) == "" {
			return s.invalid(d.Key, "derived variable has an empty expression", "")
		}
		derivedSeen[d.Key] = true
	}

	for _, pattern := range s.copyWithoutRender {
		if !validGlob(pattern) {
			return s.invalid("", fmt.Sprintf("malformed copy-without-render pattern %q", pattern), "")
		}
	}

	return nil
}

func (s *Schema) invalid(key, msg, hint string) error {
	return oerrors.NewValidationError(msg, s.source, key, hint)
}

// Source returns where the schema was loaded from.
func (s *Schema) Source() string {
	return s.source
}

// Len returns the number of primary entries.
func (s *Schema) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in declaration order.
func (s *Schema) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		e.Choices = slices.Clone(e.Choices)
		out[i] = e
	}
	return out
}

// Entry returns the entry for key.
func (s *Schema) Entry(key string) (Entry, bool) {
	i, ok := s.index[key]
	if !ok {
		return Entry{}, false
	}
	e := s.entries[i]
	e.Choices = slices.Clone(e.Choices)
	return e, true
}

// Has reports whether key is a primary entry.
func (s *Schema) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Keys returns primary keys in declaration order.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Key
	}
	return keys
}

// Derived returns the derived values in declaration order.
func (s *Schema) Derived() []Derived {
	return slices.Clone(s.derived)
}

// AllKeys returns primary keys followed by derived keys.
func (s *Schema) AllKeys() []string {
	keys := s.Keys()
	for _, d := range s.derived {
		keys = append(keys, d.Key)
	}
	return keys
}

// HasKey reports whether key is a primary or derived variable.
func (s *Schema) HasKey(key string) bool {
	if s.Has(key) {
		return true
	}
	for _, d := range s.derived {
		if d.Key == key {
			return true
		}
	}
	return false
}

// CopyWithoutRender returns the verbatim-copy glob patterns.
func (s *Schema) CopyWithoutRender() []string {
	return slices.Clone(s.copyWithoutRender)
}
