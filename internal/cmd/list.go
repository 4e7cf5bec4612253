package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/cmdutil"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/templates"
)

// NewListCmd creates the list command.
func NewListCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var of cmdutil.OutputFlags

	c := &cobra.Command{
		Use:   "list",
		Short: "List the built-in templates",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			format, err := of.Parse()
			if err != nil {
				return err
			}
			builtins := templates.Builtins()
			if format != output.FormatTable {
				return output.WriteStructured(os.Stdout, builtins, format)
			}
			t := output.NewTable("TEMPLATE", "DESCRIPTION")
			for _, b := range builtins {
				t.Row(templates.BuiltinPrefix+b.Name, b.Description)
			}
			output.Println(t.String())
			return nil
		},
	}
	of.AddTo(c)
	return c
}
