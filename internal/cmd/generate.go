package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/cmdutil"
	"github.com/opmodel/stamp/internal/config"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/pipeline"
	"github.com/opmodel/stamp/internal/resolve"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		af cmdutil.AnswerFlags
		of cmdutil.OutputFlags
	)

	var (
		outDirFlag    string
		noInputFlag   bool
		overwriteFlag bool
		replayFlag    bool
	)

	c := &cobra.Command{
		Use:   "generate <template>",
		Short: "Generate a project from a template",
		Long: `Generate a project from a template.

Answers come from, in increasing precedence: the template defaults, the
replay file of the previous run (--replay), an answers file (--answers),
--set flags and finally interactive prompts for anything still unanswered.
Prompts are skipped with --no-input or when stdin is not a terminal.

Arguments:
  template    Template directory, or builtin:<name> for an embedded template

Examples:
  # Generate from the built-in Python template, prompting for options
  stamp generate builtin:python

  # Generate non-interactively into ./out
  stamp generate ./my-template -d ./out --no-input --set project_slug=acme

  # Re-run with the answers of the last run
  stamp generate builtin:python --replay --no-input

  # Print the result as JSON
  stamp generate builtin:python --no-input -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			st := newSettings(cfg)
			outDir := st.GetString(config.KeyGenerateOutputDir, outDirFlag, c.Flags().Changed("output-dir"))
			overwrite := st.GetBool(config.KeyGenerateOverwrite, overwriteFlag, c.Flags().Changed("overwrite"))
			st.Log()
			return runGenerate(c.Context(), args[0], generateOptions{
				answers:   &af,
				output:    &of,
				outDir:    outDir,
				noInput:   noInputFlag,
				overwrite: overwrite,
				replay:    replayFlag,
			})
		},
	}

	af.AddTo(c)
	of.AddTo(c)

	c.Flags().StringVarP(&outDirFlag, "output-dir", "d", config.DefaultOutputDir,
		"Directory the project is created in")
	c.Flags().BoolVar(&noInputFlag, "no-input", false,
		"Never prompt; unanswered options take their defaults")
	c.Flags().BoolVar(&overwriteFlag, "overwrite", false,
		"Render into an existing project directory")
	c.Flags().BoolVar(&replayFlag, "replay", false,
		"Start from the answers saved by the previous run of this template")

	return c
}

type generateOptions struct {
	answers   *cmdutil.AnswerFlags
	output    *cmdutil.OutputFlags
	outDir    string
	noInput   bool
	overwrite bool
	replay    bool
}

func runGenerate(ctx context.Context, ref string, opts generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := opts.output.Parse()
	if err != nil {
		return err
	}

	tmpl, err := cmdutil.OpenTemplate(ref)
	if err != nil {
		return err
	}
	tmplLog := output.TemplateLogger(tmpl.Name)

	store, err := config.NewReplayStore("")
	if err != nil {
		tmplLog.Warn("replay disabled", "error", err)
	}

	var replayed map[string]string
	if opts.replay && store != nil {
		answers, ok, err := store.Load(tmpl.Source)
		if err != nil {
			return cmdutil.Fail("loading replay file", err)
		}
		if ok {
			tmplLog.Info("replaying previous answers", "file", store.Path(tmpl.Source))
			replayed = answers
		} else {
			tmplLog.Warn("no replay file for template", "file", store.Path(tmpl.Source))
		}
	}

	given, err := opts.answers.Answers()
	if err != nil {
		return cmdutil.Fail("reading answers", err)
	}

	popts := pipeline.Options{
		OutputDir: opts.outDir,
		Answers:   resolve.MergeAnswers(replayed, given),
		Overwrite: opts.overwrite,
	}
	if !opts.noInput && output.IsInteractive() {
		popts.Prompter = resolve.NewLinePrompter(os.Stdin, os.Stderr)
	}

	result, err := pipeline.Generate(ctx, tmpl, popts)
	if err != nil {
		return cmdutil.Fail("generation failed", err)
	}

	if store != nil {
		if err := store.Save(tmpl.Source, result.Answers); err != nil {
			tmplLog.Warn("saving replay file", "error", err)
		}
	}

	tmplLog.Info("project generated",
		"dir", result.ProjectDir,
		"files", len(result.Files),
		"removed", len(result.Post.Removed),
	)

	if format != output.FormatTable {
		return output.WriteStructured(os.Stdout, result, format)
	}
	notes := make(map[string]string, len(result.Post.Rewritten))
	for _, p := range result.Post.Rewritten {
		notes[p] = "rewritten"
	}
	output.Println(output.RenderGeneratedTree(result.ProjectDir, result.Files, notes))
	return nil
}
