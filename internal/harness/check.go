package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/opmodel/stamp/internal/engine"
	"github.com/opmodel/stamp/internal/hooks"
	"github.com/opmodel/stamp/internal/pipeline"
	"github.com/opmodel/stamp/internal/treediff"
)

// reproDir is the directory, inside a case directory, of the second render.
const reproDir = ".repro"

var eng = engine.New()

// check inspects a generated project and returns every invariant violation.
func (h *Harness) check(ctx context.Context, base billy.Filesystem, res *pipeline.Result, opts pipeline.Options) ([]string, error) {
	projectDir := filepath.ToSlash(res.ProjectDir)

	violations, err := h.checkPrune(base, projectDir, res)
	if err != nil {
		return nil, err
	}

	snap, err := treediff.Snapshot(base, projectDir)
	if err != nil {
		return nil, err
	}
	violations = append(violations, h.checkMarkers(snap)...)

	if h.opts.Reproducible {
		v, err := h.checkReproducible(ctx, base, snap, opts)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v...)
	}
	return violations, nil
}

// checkPrune re-evaluates every rule against the case context: targets of
// active rules must be gone, targets of inactive rules must be present.
func (h *Harness) checkPrune(base billy.Filesystem, projectDir string, res *pipeline.Result) ([]string, error) {
	outcomes, err := hooks.EvaluateRules(eng, h.tmpl.Hooks.Rules, res.Context)
	if err != nil {
		return nil, err
	}

	var violations []string
	for _, o := range outcomes {
		for _, target := range o.Targets {
			present, err := exists(base, path.Join(projectDir, target))
			if err != nil {
				return nil, err
			}
			switch {
			case o.Active && present:
				violations = append(violations, fmt.Sprintf("rule %s is active but %s is present", o.Rule, target))
			case !o.Active && !present:
				violations = append(violations, fmt.Sprintf("rule %s is inactive but %s is missing", o.Rule, target))
			}
		}
	}
	return violations, nil
}

// checkMarkers reports substitution markers left in text files.
func (h *Harness) checkMarkers(snap map[string]treediff.File) []string {
	var violations []string
	for _, p := range treediff.Files(snap) {
		content := snap[p].Content
		if engine.IsBinary(content) || h.tmpl.Schema.MatchesCopyWithoutRender(p) {
			continue
		}
		for _, m := range engine.ResidualMarkers(string(content)) {
			violations = append(violations, fmt.Sprintf("%s:%d: residual marker %q", p, m.Line, m.Text))
		}
	}
	return violations
}

// checkReproducible generates the case a second time next to the first and
// compares both trees.
func (h *Harness) checkReproducible(ctx context.Context, base billy.Filesystem, first map[string]treediff.File, opts pipeline.Options) ([]string, error) {
	caseDir := opts.OutputDir
	opts.OutputDir = path.Join(caseDir, reproDir)
	defer func() {
		_ = util.RemoveAll(base, opts.OutputDir)
	}()

	res, err := pipeline.Generate(ctx, h.tmpl, opts)
	if err != nil {
		return nil, fmt.Errorf("second render: %w", err)
	}
	second, err := treediff.Snapshot(base, filepath.ToSlash(res.ProjectDir))
	if err != nil {
		return nil, err
	}

	diff, err := treediff.CompareSnapshots(first, second, treediff.Options{})
	if err != nil {
		return nil, err
	}
	if diff.IsEmpty() {
		return nil, nil
	}

	var changed []string
	changed = append(changed, diff.Added...)
	changed = append(changed, diff.Removed...)
	for _, m := range diff.Modified {
		changed = append(changed, m.Path)
	}
	return []string{"second render differs: " + strings.Join(changed, ", ")}, nil
}

func exists(fs billy.Filesystem, p string) (bool, error) {
	_, err := fs.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func violationError(violations []string) error {
	errs := make([]error, len(violations))
	for i, v := range violations {
		errs[i] = errors.New(v)
	}
	return utilerrors.NewAggregate(errs)
}
