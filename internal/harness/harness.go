// Package harness generates one project per option combination and checks
// structural invariants of every generated tree.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/opmodel/stamp/internal/combo"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/hooks"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/pipeline"
	"github.com/opmodel/stamp/internal/resolve"
	"github.com/opmodel/stamp/internal/templates"
)

// DefaultMaxCases is the combination ceiling when none is configured.
const DefaultMaxCases = 256

// conflictCeiling bounds the combinations the rule conflict check enumerates.
const conflictCeiling = 1 << 16

// Options configures a sweep.
type Options struct {
	// Root is the directory case directories are created in.
	Root string

	// Filesystem holds Root. Nil means the local disk. Cases share it, so
	// every call into it is serialized.
	Filesystem billy.Filesystem

	// Mode selects full or pairwise enumeration.
	Mode combo.Mode

	// MaxCases caps the number of cases. Zero means DefaultMaxCases;
	// negative means unlimited.
	MaxCases int

	// Workers bounds concurrent cases. Zero or less means one.
	Workers int

	// Pins fixes variables to a single value across all cases.
	Pins map[string]string

	// KeepAll keeps every case directory.
	KeepAll bool

	// KeepFailed keeps the directories of failing cases.
	KeepFailed bool

	// Overwrite replaces case directories that already exist under Root.
	// Without it such a case fails at setup and the directory is left alone.
	Overwrite bool

	// Reproducible renders every case twice and compares the trees.
	Reproducible bool

	// Clock supplies the time for rewrites. Nil means time.Now.
	Clock func() time.Time
}

// Harness runs a template once per option combination.
type Harness struct {
	tmpl *templates.Template
	opts Options
}

// New returns a harness for tmpl.
func New(tmpl *templates.Template, opts Options) *Harness {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxCases == 0 {
		opts.MaxCases = DefaultMaxCases
	}
	if opts.Mode == "" {
		opts.Mode = combo.ModeAuto
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Harness{tmpl: tmpl, opts: opts}
}

// Plan enumerates the cases the sweep would run and the mode that selected them.
func (h *Harness) Plan() ([]combo.Case, combo.Mode, error) {
	dims, err := combo.Dimensions(h.tmpl.Schema, h.opts.Pins)
	if err != nil {
		return nil, h.opts.Mode, err
	}
	return combo.Plan(dims, h.opts.Mode, h.opts.MaxCases)
}

// Run plans the cases, checks the prune rules for conflicts across every
// option combination, then generates and checks every case. A failing case never stops the
// others; cancellation of ctx marks unfinished cases incomplete. The returned
// error is reserved for problems that prevent the sweep from running at all.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	cases, mode, err := h.Plan()
	if err != nil {
		return nil, err
	}
	output.Debug("sweep planned", "template", h.tmpl.Name, "mode", mode, "cases", len(cases))

	if err := h.preflight(cases); err != nil {
		return nil, err
	}

	base, err := h.filesystem()
	if err != nil {
		return nil, err
	}

	results := make([]CaseResult, len(cases))
	for i, c := range cases {
		results[i] = CaseResult{Case: c, Status: StatusIncomplete}
	}

	g := new(errgroup.Group)
	g.SetLimit(h.opts.Workers)
	for i, c := range cases {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = h.runCase(ctx, base, c)
			return nil
		})
	}
	_ = g.Wait()

	report := newReport(h.tmpl.Name, h.opts.Mode, mode, results)
	report.Duration = time.Since(start)
	return report, nil
}

// CheckRules checks the prune rules for conflicts without generating
// anything. It returns the combinations the rules were checked against and
// the mode the sweep would run in.
func (h *Harness) CheckRules() ([]combo.Case, combo.Mode, error) {
	cases, mode, err := h.Plan()
	if err != nil {
		return nil, mode, err
	}
	checked, err := h.conflictCases(cases)
	if err != nil {
		return nil, mode, err
	}
	return checked, mode, h.checkConflicts(checked)
}

// preflight checks the prune rules for conflicts before any case runs.
func (h *Harness) preflight(planned []combo.Case) error {
	if len(h.tmpl.Hooks.Rules) == 0 {
		return nil
	}
	cases, err := h.conflictCases(planned)
	if err != nil {
		return err
	}
	return h.checkConflicts(cases)
}

// conflictCases returns every combination of the choice options, so that a
// conflict outside a pairwise plan is still found. Past conflictCeiling
// combinations only the planned cases are checked.
func (h *Harness) conflictCases(planned []combo.Case) ([]combo.Case, error) {
	dims, err := combo.Dimensions(h.tmpl.Schema, h.opts.Pins)
	if err != nil {
		return nil, err
	}
	if _, over := combo.Size(dims, conflictCeiling); over {
		output.Warn("too many combinations to check every one for rule conflicts, checking the planned cases",
			"template", h.tmpl.Name, "ceiling", conflictCeiling)
		return planned, nil
	}
	return combo.CrossProduct(dims), nil
}

// checkConflicts resolves every case and checks the prune rules against all
// resolved contexts. Cases that do not resolve are left for the run to report.
func (h *Harness) checkConflicts(cases []combo.Case) error {
	contexts := make([]resolve.RenderContext, 0, len(cases))
	for _, c := range cases {
		rc, err := resolve.Resolve(h.tmpl.Schema, c.Map())
		if err != nil {
			continue
		}
		contexts = append(contexts, rc)
	}
	return hooks.CheckConflicts(h.tmpl.Hooks.Rules, contexts)
}

func (h *Harness) filesystem() (billy.Filesystem, error) {
	root := h.opts.Root
	if root == "" {
		root = "."
	}
	if h.opts.Filesystem == nil {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("creating sweep root %s: %w", root, err)
		}
		return osfs.New(root), nil
	}

	shared := newLockedFS(h.opts.Filesystem)
	if root == "." {
		return shared, nil
	}
	if err := shared.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating sweep root %s: %w", root, err)
	}
	return shared.Chroot(root)
}

// runCase generates and checks one case in its own directory below base.
func (h *Harness) runCase(ctx context.Context, base billy.Filesystem, c combo.Case) (result CaseResult) {
	result = CaseResult{Case: c, Dir: c.Name}
	logger := output.CaseLogger(c.Name)
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	if ctx.Err() != nil {
		result.Status = StatusIncomplete
		return result
	}

	if err := h.prepare(base, c.Name); err != nil {
		result.fail(StageSetup, err)
		logger.Debug("case directory not usable", "err", oerrors.Summary(err))
		return result
	}

	now := h.opts.Clock()
	opts := pipeline.Options{
		OutputDir:  c.Name,
		Filesystem: base,
		Answers:    c.Map(),
		Clock:      func() time.Time { return now },
	}

	res, err := pipeline.Generate(ctx, h.tmpl, opts)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			result.Status = StatusIncomplete
			h.discard(base, c.Name)
			return result
		}
		result.fail(string(pipeline.StageOf(err)), err)
		logger.Debug("generation failed", "kind", oerrors.Kind(err), "err", oerrors.Summary(err))
		h.finish(base, &result)
		return result
	}
	result.ProjectDir = res.ProjectDir

	violations, err := h.check(ctx, base, res, opts)
	switch {
	case err != nil && ctx.Err() != nil:
		result.Status = StatusIncomplete
		h.discard(base, c.Name)
		return result
	case err != nil:
		result.fail(StageCheck, err)
	case len(violations) > 0:
		result.Violations = violations
		result.fail(StageCheck, violationError(violations))
	default:
		result.Status = StatusPassed
	}

	logger.Debug("case finished", "status", result.Status, "files", len(res.Files))
	h.finish(base, &result)
	return result
}

// prepare makes sure the case directory is free. An empty directory is
// reused; anything else is replaced only with Overwrite.
func (h *Harness) prepare(base billy.Filesystem, dir string) error {
	info, err := base.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", dir, err)
	case h.opts.Overwrite:
		return util.RemoveAll(base, dir)
	case !info.IsDir():
		return oerrors.NewValidationError("case path exists and is not a directory", dir, "",
			"Use --overwrite to replace it, or choose another --out directory.")
	}

	entries, err := base.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return oerrors.NewValidationError("case directory already exists", dir, "",
			"Use --overwrite to replace it, or choose another --out directory.")
	}
	return nil
}

// finish removes the case directory unless it is to be kept.
func (h *Harness) finish(base billy.Filesystem, r *CaseResult) {
	if h.opts.KeepAll || (h.opts.KeepFailed && r.Status == StatusFailed) {
		r.Kept = true
		return
	}
	h.discard(base, r.Dir)
}

func (h *Harness) discard(base billy.Filesystem, dir string) {
	if err := util.RemoveAll(base, dir); err != nil {
		output.Warn("could not remove case directory", "dir", dir, "err", err)
	}
}
