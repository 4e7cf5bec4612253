package hooks

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/opmodel/stamp/internal/engine"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/resolve"
)

// CheckConflicts evaluates the rules against every context and reports
// RuleConflict errors for rules that disagree about a path: two rules
// rendering the same target under different condition values, or an active
// rule removing a directory that contains an inactive rule's target. Each
// conflicting rule pair and path is reported once.
func CheckConflicts(rules []PruneRule, contexts []resolve.RenderContext) error {
	eng := engine.New()
	seen := sets.New[string]()
	var errs []error

	report := func(a, b, path, detail string) {
		id := a + "\x00" + b + "\x00" + path
		if seen.Has(id) {
			return
		}
		seen.Insert(id)
		errs = append(errs, oerrors.NewRuleConflictError(a, b, path, detail))
	}

	for _, rc := range contexts {
		outcomes, err := EvaluateRules(eng, rules, rc)
		if err != nil {
			return err
		}

		for i := range outcomes {
			for j := range outcomes {
				if i == j {
					continue
				}
				oi, oj := outcomes[i], outcomes[j]
				for _, ti := range oi.Targets {
					for _, tj := range oj.Targets {
						switch {
						case i < j && ti == tj && oi.Active != oj.Active:
							report(oi.Rule, oj.Rule, ti,
								fmt.Sprintf("same path, %s is %t but %s is %t", oi.Rule, oi.Active, oj.Rule, oj.Active))
						case under(tj, ti) && oi.Active && !oj.Active:
							report(oi.Rule, oj.Rule, tj,
								fmt.Sprintf("%s removes %s while %s keeps %s", oi.Rule, ti, oj.Rule, tj))
						}
					}
				}
			}
		}
	}

	return utilerrors.NewAggregate(errs)
}
