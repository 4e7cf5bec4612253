package hooks

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/opmodel/stamp/internal/engine"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/resolve"
)

// PostHook prunes and rewrites a freshly rendered tree.
type PostHook struct {
	rules    []PruneRule
	rewrites []Rewrite
	engine   *engine.Engine
}

// PostResult records what the post-generation hook did.
type PostResult struct {
	Outcomes  []RuleOutcome `json:"outcomes"`
	Removed   []string      `json:"removed"`
	Rewritten []string      `json:"rewritten"`
}

// NewPostHook returns the pruner configured by m.
func NewPostHook(m *Manifest) *PostHook {
	return &PostHook{
		rules:    m.Rules,
		rewrites: m.Rewrites,
		engine:   engine.New(),
	}
}

// ClockValues returns the clock-derived rewrite variables for now.
func ClockValues(now time.Time) map[string]string {
	return map[string]string{
		KeyDate:      now.Format("2006-01-02"),
		KeyYear:      now.Format("2006"),
		KeyTimestamp: now.UTC().Format(time.RFC3339),
	}
}

// Run removes the targets of every rule whose condition holds, then applies
// rewrites. Absent prune targets are skipped. Any failure is a PruneFailure
// naming the path; the tree is left as it is for the caller to discard.
func (h *PostHook) Run(tree billy.Filesystem, rc resolve.RenderContext, now time.Time) (*PostResult, error) {
	outcomes, err := EvaluateRules(h.engine, h.rules, rc)
	if err != nil {
		return nil, wrapPrune("", err)
	}

	result := &PostResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if !o.Active {
			continue
		}
		for _, target := range o.Targets {
			if _, err := tree.Stat(target); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return result, oerrors.NewPruneFailureError(target, "cannot inspect prune target", err)
			}
			if err := util.RemoveAll(tree, target); err != nil {
				return result, oerrors.NewPruneFailureError(target, "cannot remove prune target", err)
			}
			output.Debug("pruned", "rule", o.Rule, "path", target)
			result.Removed = append(result.Removed, target)
		}
	}

	rwc := rc.With(ClockValues(now))
	data := rwc.Values()
	for i, rw := range h.rewrites {
		active, err := rw.When.Eval(rwc)
		if err != nil {
			return result, wrapPrune(rw.Path, err)
		}
		if !active {
			continue
		}

		loc := fmt.Sprintf("rewrites[%d]", i)
		target, err := renderTreePath(h.engine, loc, rw.Path, data)
		if err != nil {
			return result, wrapPrune(rw.Path, err)
		}
		oldText, err := h.engine.Render(loc, rw.Old, data)
		if err != nil {
			return result, wrapPrune(target, err)
		}
		newText, err := h.engine.Render(loc, rw.New, data)
		if err != nil {
			return result, wrapPrune(target, err)
		}

		if err := rewriteFile(tree, target, oldText, newText); err != nil {
			return result, err
		}
		output.Debug("rewrote", "path", target)
		result.Rewritten = append(result.Rewritten, target)
	}

	return result, nil
}

func rewriteFile(tree billy.Filesystem, target, oldText, newText string) error {
	info, err := tree.Stat(target)
	if err != nil {
		return oerrors.NewPruneFailureError(target, "rewrite target does not exist", err)
	}
	if info.IsDir() {
		return oerrors.NewPruneFailureError(target, "rewrite target is a directory", nil)
	}

	content, err := util.ReadFile(tree, target)
	if err != nil {
		return oerrors.NewPruneFailureError(target, "cannot read rewrite target", err)
	}
	if !strings.Contains(string(content), oldText) {
		return oerrors.NewPruneFailureError(target, fmt.Sprintf("rewrite text %q not found", oldText), nil)
	}

	updated := strings.ReplaceAll(string(content), oldText, newText)
	if err := util.WriteFile(tree, target, []byte(updated), info.Mode().Perm()); err != nil {
		return oerrors.NewPruneFailureError(target, "cannot write rewrite target", err)
	}
	return nil
}

// wrapPrune keeps already classified errors and wraps the rest as PruneFailure.
func wrapPrune(path string, err error) error {
	if oerrors.Kind(err) != "Error" {
		return err
	}
	return oerrors.NewPruneFailureError(path, "post-generation hook failed", err)
}
