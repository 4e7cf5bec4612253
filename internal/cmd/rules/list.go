package rules

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/cmdutil"
	"github.com/opmodel/stamp/internal/hooks"
	"github.com/opmodel/stamp/internal/output"
)

// NewRulesListCmd creates the rules list command.
func NewRulesListCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var of cmdutil.OutputFlags

	c := &cobra.Command{
		Use:   "list <template>",
		Short: "List the prune rules of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runList(args[0], &of)
		},
	}
	of.AddTo(c)
	return c
}

type ruleView struct {
	Name   string   `json:"name"`
	When   string   `json:"when"`
	Remove []string `json:"remove"`
}

func ruleViews(rules []hooks.PruneRule) []ruleView {
	out := make([]ruleView, len(rules))
	for i, r := range rules {
		out[i] = ruleView{Name: r.Name, When: r.When.String(), Remove: r.Remove}
	}
	return out
}

func runList(ref string, of *cmdutil.OutputFlags) error {
	format, err := of.Parse()
	if err != nil {
		return err
	}
	tmpl, err := cmdutil.OpenTemplate(ref)
	if err != nil {
		return err
	}

	views := ruleViews(tmpl.Hooks.Rules)
	if format != output.FormatTable {
		return output.WriteStructured(os.Stdout, views, format)
	}
	if len(views) == 0 {
		output.Println("No prune rules.")
		return nil
	}

	t := output.NewTable("RULE", "WHEN", "REMOVE")
	for _, v := range views {
		t.Row(v.Name, v.When, strings.Join(v.Remove, ", "))
	}
	output.Println(t.String())
	return nil
}
