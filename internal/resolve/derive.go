package resolve

import (
	"slices"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/schema"
)

// DerivationOrder returns derived keys in evaluation order: every derived
// value comes after the derived values it references, and independent values
// keep their declaration order. A reference to an unknown key is an
// UnresolvedVariable error; mutual references are a DerivationCycle error.
func DerivationOrder(s *schema.Schema) ([]string, error) {
	derived := s.Derived()
	if len(derived) == 0 {
		return nil, nil
	}

	isDerived := make(map[string]bool, len(derived))
	for _, d := range derived {
		isDerived[d.Key] = true
	}

	deps := make(map[string][]string, len(derived))
	for _, d := range derived {
		refs, err := eng.References(d.Expr)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			switch {
			case s.Has(ref):
			case isDerived[ref]:
				deps[d.Key] = append(deps[d.Key], ref)
			default:
				return nil, oerrors.NewUnresolvedVariableError(ref, derivedLocation(d.Key))
			}
		}
	}

	done := make(map[string]bool, len(derived))
	order := make([]string, 0, len(derived))
	for len(order) < len(derived) {
		picked := false
		for _, d := range derived {
			if done[d.Key] {
				continue
			}
			ready := true
			for _, dep := range deps[d.Key] {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				done[d.Key] = true
				order = append(order, d.Key)
				picked = true
				break
			}
		}
		if !picked {
			return nil, oerrors.NewDerivationCycleError(findCycle(derived, deps, done))
		}
	}
	return order, nil
}

// findCycle follows unresolved dependencies from the first pending key until
// a key repeats, and returns the loop closed on its first key.
func findCycle(derived []schema.Derived, deps map[string][]string, done map[string]bool) []string {
	var start string
	for _, d := range derived {
		if !done[d.Key] {
			start = d.Key
			break
		}
	}

	var path []string
	cur := start
	for !slices.Contains(path, cur) {
		path = append(path, cur)
		next := ""
		for _, dep := range deps[cur] {
			if !done[dep] {
				next = dep
				break
			}
		}
		if next == "" {
			// Unreachable: a pending key always has a pending dependency.
			return path
		}
		cur = next
	}

	i := slices.Index(path, cur)
	return append(slices.Clone(path[i:]), cur)
}
