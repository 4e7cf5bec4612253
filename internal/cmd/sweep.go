package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/cmdutil"
	"github.com/opmodel/stamp/internal/combo"
	"github.com/opmodel/stamp/internal/config"
	"github.com/opmodel/stamp/internal/harness"
	"github.com/opmodel/stamp/internal/output"
)

// NewSweepCmd creates the sweep command.
func NewSweepCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		af cmdutil.AnswerFlags
		of cmdutil.OutputFlags
	)

	var (
		outFlag          string
		workersFlag      int
		maxCasesFlag     int
		modeFlag         string
		keepFailedFlag   bool
		keepFlag         bool
		reproducibleFlag bool
		overwriteFlag    bool
		timeoutFlag      time.Duration
	)

	c := &cobra.Command{
		Use:   "sweep <template>",
		Short: "Generate every option combination and check the results",
		Long: `Generate a template once per combination of its choice options and
check every generated tree.

Each case is generated without prompting into its own directory. A case
fails when generation fails, when a prune rule left its target behind or
removed it wrongly, or when a rendered file still contains a substitution
marker. With --reproducible every case is generated twice and the trees
are compared.

Without --out, cases are generated in memory unless they are to be kept,
in which case a temporary directory is used. A case whose directory under
--out already has content fails unless --overwrite is given.

--set pins an option to a single value for every case.

Arguments:
  template    Template directory, or builtin:<name> for an embedded template

Examples:
  # Sweep the built-in Python template
  stamp sweep builtin:python

  # Sweep with 8 workers, keeping failed cases under ./sweep
  stamp sweep ./my-template --workers 8 --out ./sweep --keep-failed

  # Force pairwise coverage with the layout pinned
  stamp sweep ./my-template --mode pairwise --set layout=src

  # Report as JSON
  stamp sweep builtin:python -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			st := newSettings(cfg)
			opts := sweepOptions{
				answers:      &af,
				output:       &of,
				out:          st.GetString(config.KeySweepOutputRoot, outFlag, c.Flags().Changed("out")),
				workers:      st.GetInt(config.KeySweepWorkers, workersFlag, c.Flags().Changed("workers")),
				maxCases:     st.GetInt(config.KeySweepMaxCases, maxCasesFlag, c.Flags().Changed("max-cases")),
				mode:         st.GetString(config.KeySweepMode, modeFlag, c.Flags().Changed("mode")),
				keepFailed:   st.GetBool(config.KeySweepKeepFailed, keepFailedFlag, c.Flags().Changed("keep-failed")),
				keepAll:      keepFlag,
				reproducible: reproducibleFlag,
				overwrite:    overwriteFlag,
				timeout:      timeoutFlag,
			}
			st.Log()
			return runSweep(c.Context(), args[0], opts)
		},
	}

	af.AddTo(c)
	of.AddTo(c)

	c.Flags().StringVar(&outFlag, "out", "",
		"Directory case directories are created in")
	c.Flags().IntVar(&workersFlag, "workers", config.DefaultWorkers,
		"Number of cases generated concurrently")
	c.Flags().IntVar(&maxCasesFlag, "max-cases", config.DefaultMaxCases,
		"Combination ceiling; -1 for unlimited")
	c.Flags().StringVar(&modeFlag, "mode", config.DefaultMode,
		"Enumeration mode: auto, full, pairwise")
	c.Flags().BoolVar(&keepFailedFlag, "keep-failed", false,
		"Keep the directories of failed cases")
	c.Flags().BoolVar(&keepFlag, "keep", false,
		"Keep every case directory")
	c.Flags().BoolVar(&reproducibleFlag, "reproducible", false,
		"Generate every case twice and compare the trees")
	c.Flags().BoolVar(&overwriteFlag, "overwrite", false,
		"Replace case directories that already exist under --out")
	c.Flags().DurationVar(&timeoutFlag, "timeout", 0,
		"Stop the sweep after this long; unfinished cases are incomplete")

	return c
}

type sweepOptions struct {
	answers      *cmdutil.AnswerFlags
	output       *cmdutil.OutputFlags
	out          string
	workers      int
	maxCases     int
	mode         string
	keepFailed   bool
	keepAll      bool
	reproducible bool
	overwrite    bool
	timeout      time.Duration
}

func runSweep(ctx context.Context, ref string, opts sweepOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := opts.output.Parse()
	if err != nil {
		return err
	}
	mode, err := combo.ParseMode(opts.mode)
	if err != nil {
		return cmdutil.Usage(err)
	}
	if opts.workers < 1 {
		return cmdutil.Usage(fmt.Errorf("--workers must be at least 1, got %d", opts.workers))
	}

	pins, err := opts.answers.Answers()
	if err != nil {
		return cmdutil.Fail("reading answers", err)
	}

	tmpl, err := cmdutil.OpenTemplate(ref)
	if err != nil {
		return err
	}

	root, fsys, err := sweepRoot(opts)
	if err != nil {
		return err
	}

	h := harness.New(tmpl, harness.Options{
		Root:         root,
		Filesystem:   fsys,
		Mode:         mode,
		MaxCases:     opts.maxCases,
		Workers:      opts.workers,
		Pins:         pins,
		KeepAll:      opts.keepAll,
		KeepFailed:   opts.keepFailed,
		Reproducible: opts.reproducible,
		Overwrite:    opts.overwrite,
	})

	var report *harness.Report
	title := fmt.Sprintf("Sweeping %s...", tmpl.Name)
	err = output.Spin(ctx, title, opts.timeout, func(ctx context.Context) error {
		var runErr error
		report, runErr = h.Run(ctx)
		return runErr
	})
	if err != nil {
		return cmdutil.Fail("sweep failed", err)
	}

	if format != output.FormatTable {
		if err := output.WriteStructured(os.Stdout, report, format); err != nil {
			return err
		}
	} else {
		printSweepReport(report, root, fsys == nil)
	}

	if report.OK() {
		return nil
	}
	return &cmdtypes.ExitError{
		Code:    cmdtypes.ExitSweepFailed,
		Err:     fmt.Errorf("%d of %d cases did not pass", report.Total-report.Passed, report.Total),
		Printed: format == output.FormatTable,
	}
}

// sweepRoot picks where cases are generated. A nil filesystem means the
// local disk below root.
func sweepRoot(opts sweepOptions) (string, billy.Filesystem, error) {
	if opts.out != "" {
		return opts.out, nil, nil
	}
	if !opts.keepAll && !opts.keepFailed {
		return ".", memfs.New(), nil
	}
	dir, err := os.MkdirTemp("", "stamp-sweep-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating sweep directory: %w", err)
	}
	return dir, nil, nil
}

func printSweepReport(report *harness.Report, root string, onDisk bool) {
	tmplLog := output.TemplateLogger(report.Template)
	modeLine := fmt.Sprintf("mode %s, %d cases", report.Mode, report.Total)
	if report.Mode != report.RequestedMode {
		modeLine = fmt.Sprintf("mode %s (requested %s), %d cases", report.Mode, report.RequestedMode, report.Total)
	}
	tmplLog.Info(modeLine)

	output.Println(output.RenderCaseTable(report.Rows()))

	for _, c := range report.Failures() {
		caseLog := output.CaseLogger(c.Case.Name)
		for _, v := range c.Violations {
			caseLog.Error(v)
		}
		if c.Kept && onDisk {
			caseLog.Info("kept", "dir", filepath.Join(root, c.Dir))
		}
	}

	summary := fmt.Sprintf("%d passed, %d failed, %d incomplete in %s",
		report.Passed, report.Failed, report.Incomplete, report.Duration.Round(time.Millisecond))
	if report.OK() {
		output.Println(output.FormatCheckmark(summary))
		return
	}
	output.Println(output.FormatCross(summary))
}
