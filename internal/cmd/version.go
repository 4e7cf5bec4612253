package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/cmdutil"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var of cmdutil.OutputFlags

	c := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show stamp version information.

Displays:
  - stamp version, commit, and build date
  - Go and CUE SDK versions`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			format, err := of.Parse()
			if err != nil {
				return err
			}
			info := version.Get()
			if format != output.FormatTable {
				return output.WriteStructured(os.Stdout, info, format)
			}
			output.Println(info.String())
			return nil
		},
	}
	of.AddTo(c)
	return c
}
