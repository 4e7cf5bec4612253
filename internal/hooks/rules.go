package hooks

import (
	"fmt"
	"path"
	"strings"

	"github.com/opmodel/stamp/internal/engine"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/resolve"
)

// RuleOutcome is a rule evaluated against one context.
type RuleOutcome struct {
	Rule    string   `json:"rule"`
	Active  bool     `json:"active"`
	Targets []string `json:"targets"`
}

// EvaluateRules evaluates every rule and renders its targets against rc.
// Rendered targets are cleaned slash paths relative to the project root.
func EvaluateRules(eng *engine.Engine, rules []PruneRule, rc resolve.RenderContext) ([]RuleOutcome, error) {
	data := rc.Values()
	out := make([]RuleOutcome, 0, len(rules))
	for _, r := range rules {
		active, err := r.When.Eval(rc)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		targets := make([]string, 0, len(r.Remove))
		for _, raw := range r.Remove {
			target, err := renderTreePath(eng, ruleLocation(r.Name), raw, data)
			if err != nil {
				return nil, err
			}
			targets = append(targets, target)
		}
		out = append(out, RuleOutcome{Rule: r.Name, Active: active, Targets: targets})
	}
	return out, nil
}

// renderTreePath renders a templated path and confines it to the tree.
func renderTreePath(eng *engine.Engine, location, raw string, data map[string]string) (string, error) {
	rendered, err := eng.Render(location, raw, data)
	if err != nil {
		return "", err
	}
	p := path.Clean(strings.TrimSpace(rendered))
	if p == "." || p == ".." || path.IsAbs(p) || strings.HasPrefix(p, "../") {
		return "", oerrors.NewPruneFailureError(rendered, "path escapes the project directory", nil)
	}
	return p, nil
}

// under reports whether p lies strictly below dir.
func under(p, dir string) bool {
	return strings.HasPrefix(p, dir+"/")
}
