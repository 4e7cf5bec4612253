package combo

import (
	"fmt"
	"strings"

	oerrors "github.com/opmodel/stamp/internal/errors"
)

// Mode selects how cases are enumerated.
type Mode string

const (
	// ModeAuto runs the full cross product unless it exceeds the ceiling,
	// then falls back to pairwise.
	ModeAuto Mode = "auto"

	// ModeFull runs the full cross product.
	ModeFull Mode = "full"

	// ModePairwise runs a covering set where every pair of values of two
	// different dimensions appears in at least one case.
	ModePairwise Mode = "pairwise"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeFull:
		return ModeFull, nil
	case ModePairwise:
		return ModePairwise, nil
	default:
		return "", fmt.Errorf("unknown sweep mode %q; valid modes: auto, full, pairwise", s)
	}
}

// Plan enumerates cases for dims and reports which mode actually ran.
// A non-positive ceiling means unlimited.
func Plan(dims []Dimension, mode Mode, ceiling int) ([]Case, Mode, error) {
	n, over := Size(dims, ceiling)

	switch mode {
	case ModeFull:
		if over {
			return nil, mode, tooMany(n, ceiling)
		}
		return CrossProduct(dims), ModeFull, nil
	case ModePairwise:
		cases := Pairwise(dims)
		if ceiling > 0 && len(cases) > ceiling {
			return nil, mode, tooMany(len(cases), ceiling)
		}
		return cases, ModePairwise, nil
	case ModeAuto, "":
		if !over {
			return CrossProduct(dims), ModeFull, nil
		}
		return Plan(dims, ModePairwise, ceiling)
	default:
		return nil, mode, fmt.Errorf("unknown sweep mode %q", mode)
	}
}

func tooMany(n, ceiling int) error {
	return oerrors.NewValidationError(
		fmt.Sprintf("more than %d combinations (at least %d)", ceiling, n), "", "sweep.maxCases",
		"Pin variables with --set, use --mode pairwise, or raise --max-cases.")
}

type pair struct {
	i, a, j, b int
}

// Pairwise returns a deterministic covering array of strength two. Cases are
// built greedily: each starts from the first uncovered pair, and the remaining
// dimensions take the value covering the most new pairs, lowest index first.
func Pairwise(dims []Dimension) []Case {
	multi := 0
	for _, d := range dims {
		if len(d.Values) == 0 {
			return nil
		}
		if len(d.Values) > 1 {
			multi++
		}
	}
	if multi < 2 {
		return CrossProduct(dims)
	}

	uncovered := make(map[pair]bool)
	for i := range dims {
		for j := i + 1; j < len(dims); j++ {
			for a := range dims[i].Values {
				for b := range dims[j].Values {
					uncovered[pair{i, a, j, b}] = true
				}
			}
		}
	}

	var cases []Case
	for len(uncovered) > 0 {
		seed := firstUncovered(dims, uncovered)

		row := make([]int, len(dims))
		set := make([]bool, len(dims))
		row[seed.i], set[seed.i] = seed.a, true
		row[seed.j], set[seed.j] = seed.b, true

		for k := range dims {
			if set[k] {
				continue
			}
			best, bestGain := 0, -1
			for v := range dims[k].Values {
				gain := 0
				for m := range dims {
					if !set[m] {
						continue
					}
					if uncovered[orderedPair(m, row[m], k, v)] {
						gain++
					}
				}
				if gain > bestGain {
					best, bestGain = v, gain
				}
			}
			row[k], set[k] = best, true
		}

		for i := range dims {
			for j := i + 1; j < len(dims); j++ {
				delete(uncovered, pair{i, row[i], j, row[j]})
			}
		}
		cases = append(cases, newCase(len(cases), dims, row))
	}
	return cases
}

func firstUncovered(dims []Dimension, uncovered map[pair]bool) pair {
	for i := range dims {
		for j := i + 1; j < len(dims); j++ {
			for a := range dims[i].Values {
				for b := range dims[j].Values {
					p := pair{i, a, j, b}
					if uncovered[p] {
						return p
					}
				}
			}
		}
	}
	return pair{}
}

func orderedPair(m, mv, k, kv int) pair {
	if m < k {
		return pair{m, mv, k, kv}
	}
	return pair{k, kv, m, mv}
}
