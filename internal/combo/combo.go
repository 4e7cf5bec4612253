// Package combo enumerates option combinations of a schema for sweeps.
package combo

import (
	"fmt"
	"strings"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/schema"
)

// Dimension is one variable and the values a sweep tries for it.
type Dimension struct {
	Key    string
	Values []string
}

// Answer is a single key/value assignment.
type Answer struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Case is one combination to generate.
type Case struct {
	// Index is the zero-based position in the plan.
	Index int `json:"index"`

	// Name identifies the case and names its output directory.
	Name string `json:"name"`

	// Answers lists one value per dimension in schema order.
	Answers []Answer `json:"answers"`
}

// Map returns the answers as a mapping.
func (c Case) Map() map[string]string {
	m := make(map[string]string, len(c.Answers))
	for _, a := range c.Answers {
		m[a.Key] = a.Value
	}
	return m
}

// Label renders the answers as "k=v k=v".
func (c Case) Label() string {
	parts := make([]string, len(c.Answers))
	for i, a := range c.Answers {
		parts[i] = a.Key + "=" + a.Value
	}
	return strings.Join(parts, " ")
}

// CaseName returns the directory name for the case at index.
func CaseName(index int) string {
	return fmt.Sprintf("case-%04d", index+1)
}

// Dimensions returns one dimension per schema entry in schema order.
// Choice entries contribute all their choices, or only the pinned value.
// Free-text entries contribute their pinned value or default.
func Dimensions(s *schema.Schema, pins map[string]string) ([]Dimension, error) {
	for k := range pins {
		if !s.Has(k) {
			return nil, oerrors.NewValidationError(fmt.Sprintf("cannot pin unknown variable %q", k), s.Source(), k, "")
		}
	}

	entries := s.Entries()
	dims := make([]Dimension, 0, len(entries))
	for _, e := range entries {
		pin, pinned := pins[e.Key]
		switch {
		case pinned && e.Kind == schema.SingleChoice && !e.HasChoice(pin):
			return nil, oerrors.NewInvalidChoiceError(e.Key, pin, e.Choices)
		case pinned:
			dims = append(dims, Dimension{Key: e.Key, Values: []string{pin}})
		case e.Kind == schema.SingleChoice:
			dims = append(dims, Dimension{Key: e.Key, Values: e.Choices})
		default:
			dims = append(dims, Dimension{Key: e.Key, Values: []string{e.Default}})
		}
	}
	return dims, nil
}

// Size returns the cross-product size of dims. When the size exceeds a
// positive ceiling, counting stops and over is true.
func Size(dims []Dimension, ceiling int) (n int, over bool) {
	n = 1
	for _, d := range dims {
		n *= len(d.Values)
		if ceiling > 0 && n > ceiling {
			return n, true
		}
		if n == 0 {
			return 0, false
		}
	}
	return n, false
}

// CrossProduct returns every combination. The last dimension varies fastest.
func CrossProduct(dims []Dimension) []Case {
	total, _ := Size(dims, 0)
	if total == 0 {
		return nil
	}

	cases := make([]Case, 0, total)
	idx := make([]int, len(dims))
	for {
		row := make([]int, len(dims))
		copy(row, idx)
		cases = append(cases, newCase(len(cases), dims, row))

		// Odometer increment.
		pos := len(dims) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(dims[pos].Values) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return cases
		}
	}
}

func newCase(index int, dims []Dimension, row []int) Case {
	answers := make([]Answer, len(dims))
	for i, d := range dims {
		answers[i] = Answer{Key: d.Key, Value: d.Values[row[i]]}
	}
	return Case{Index: index, Name: CaseName(index), Answers: answers}
}
