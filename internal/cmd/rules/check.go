package rules

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/cmdutil"
	"github.com/opmodel/stamp/internal/combo"
	"github.com/opmodel/stamp/internal/harness"
	"github.com/opmodel/stamp/internal/output"
)

// NewRulesCheckCmd creates the rules check command.
func NewRulesCheckCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var af cmdutil.AnswerFlags

	var (
		modeFlag     string
		maxCasesFlag int
	)

	c := &cobra.Command{
		Use:   "check <template>",
		Short: "Check the prune rules for conflicts",
		Long: `Check the prune rules of a template for conflicts across every option
combination, without generating anything. --mode and --max-cases are
validated as a sweep would; when the options have too many combinations to
enumerate, only the cases a sweep would run are checked.

Two rules conflict when they target the same path but disagree on whether
to remove it, or when an active rule removes a directory containing the
target of an inactive rule.

Examples:
  stamp rules check builtin:python
  stamp rules check ./my-template --mode full --max-cases -1`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCheck(args[0], &af, modeFlag, maxCasesFlag)
		},
	}

	af.AddTo(c)
	c.Flags().StringVar(&modeFlag, "mode", string(combo.ModeAuto),
		"Enumeration mode: auto, full, pairwise")
	c.Flags().IntVar(&maxCasesFlag, "max-cases", harness.DefaultMaxCases,
		"Combination ceiling; -1 for unlimited")
	return c
}

func runCheck(ref string, af *cmdutil.AnswerFlags, modeName string, maxCases int) error {
	mode, err := combo.ParseMode(modeName)
	if err != nil {
		return cmdutil.Usage(err)
	}
	pins, err := af.Answers()
	if err != nil {
		return cmdutil.Fail("reading answers", err)
	}
	tmpl, err := cmdutil.OpenTemplate(ref)
	if err != nil {
		return err
	}

	h := harness.New(tmpl, harness.Options{Mode: mode, MaxCases: maxCases, Pins: pins})
	cases, ran, err := h.CheckRules()
	if err != nil {
		return cmdutil.Fail("rule check failed", err)
	}

	output.Println(output.FormatCheckmark(fmt.Sprintf(
		"%d rules, no conflicts across %d combinations (%s)",
		len(tmpl.Hooks.Rules), len(cases), ran)))
	return nil
}
