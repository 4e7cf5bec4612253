package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/cmdutil"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/schema"
	"github.com/opmodel/stamp/internal/templates"
)

// NewSchemaCmd creates the schema command group.
func NewSchemaCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the variable schema of a template",
	}
	c.AddCommand(NewSchemaShowCmd(cfg))
	return c
}

// NewSchemaShowCmd creates the schema show command.
func NewSchemaShowCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var of cmdutil.OutputFlags

	c := &cobra.Command{
		Use:   "show <template>",
		Short: "Show the variables of a template",
		Long: `Show the variables a template declares: each option with its kind,
default and choices, the derived values and the copy-without-render
patterns. The template is also linted; lint problems fail the command.

Examples:
  stamp schema show builtin:python
  stamp schema show ./my-template -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSchema(args[0], &of)
		},
	}
	of.AddTo(c)
	return c
}

type schemaView struct {
	Template          string         `json:"template"`
	Variables         []variableView `json:"variables"`
	Derived           []derivedView  `json:"derived,omitempty"`
	CopyWithoutRender []string       `json:"copyWithoutRender,omitempty"`
	Rules             int            `json:"rules"`
}

type variableView struct {
	Key     string      `json:"key"`
	Kind    schema.Kind `json:"kind"`
	Default string      `json:"default"`
	Choices []string    `json:"choices,omitempty"`
	Help    string      `json:"help,omitempty"`
}

type derivedView struct {
	Key  string `json:"key"`
	Expr string `json:"expr"`
}

func newSchemaView(tmpl *templates.Template) schemaView {
	v := schemaView{
		Template:          tmpl.Name,
		CopyWithoutRender: tmpl.Schema.CopyWithoutRender(),
		Rules:             len(tmpl.Hooks.Rules),
	}
	for _, e := range tmpl.Schema.Entries() {
		v.Variables = append(v.Variables, variableView{
			Key:     e.Key,
			Kind:    e.Kind,
			Default: e.Default,
			Choices: e.Choices,
			Help:    e.Help,
		})
	}
	for _, d := range tmpl.Schema.Derived() {
		v.Derived = append(v.Derived, derivedView{Key: d.Key, Expr: d.Expr})
	}
	return v
}

func runSchema(ref string, of *cmdutil.OutputFlags) error {
	format, err := of.Parse()
	if err != nil {
		return err
	}

	tmpl, err := cmdutil.OpenTemplate(ref)
	if err != nil {
		return err
	}
	if err := tmpl.Lint(); err != nil {
		return cmdutil.Fail("template lint failed", err)
	}

	view := newSchemaView(tmpl)
	if format != output.FormatTable {
		return output.WriteStructured(os.Stdout, view, format)
	}

	t := output.NewTable("KEY", "KIND", "DEFAULT", "CHOICES", "HELP")
	for _, v := range view.Variables {
		t.Row(v.Key, string(v.Kind), v.Default, strings.Join(v.Choices, ", "), v.Help)
	}
	for _, d := range view.Derived {
		t.Row(d.Key, "derived", "", "", d.Expr)
	}
	output.Println(t.String())

	if len(view.CopyWithoutRender) > 0 {
		output.Println(fmt.Sprintf("Copied without rendering: %s", strings.Join(view.CopyWithoutRender, ", ")))
	}
	return nil
}
