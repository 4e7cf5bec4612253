package cmd

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/cmdutil"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/treediff"
)

// NewDiffCmd creates the diff command.
func NewDiffCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		of        cmdutil.OutputFlags
		colorFlag bool
	)

	c := &cobra.Command{
		Use:   "diff <dir-a> <dir-b>",
		Short: "Compare two generated project trees",
		Long: `Compare two generated project trees file by file.

YAML files are compared structurally; other text files report their first
differing line. The command exits 1 when the trees differ.

Examples:
  # Compare two sweep cases kept on disk
  stamp diff ./sweep/case-0001/app ./sweep/case-0002/app`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], &of, colorFlag)
		},
	}

	of.AddTo(c)
	c.Flags().BoolVar(&colorFlag, "color", output.IsTTY(), "Color YAML differences")
	return c
}

func runDiff(dirA, dirB string, of *cmdutil.OutputFlags, color bool) error {
	format, err := of.Parse()
	if err != nil {
		return err
	}

	for _, dir := range []string{dirA, dirB} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return cmdutil.Fail("cannot compare", oerrors.NewNotFoundError("directory not found", dir, ""))
		}
	}

	res, err := treediff.Compare(osfs.New(dirA), ".", osfs.New(dirB), ".", treediff.Options{Color: color})
	if err != nil {
		return cmdutil.Fail("comparing trees", err)
	}

	if format != output.FormatTable {
		if err := output.WriteStructured(os.Stdout, res, format); err != nil {
			return err
		}
	} else {
		modified := make([]output.ModifiedItem, len(res.Modified))
		for i, m := range res.Modified {
			modified[i] = output.ModifiedItem{Name: m.Path, Diff: m.Diff}
		}
		output.Println(output.RenderDiff(res.Added, res.Removed, modified))
	}

	if res.IsEmpty() {
		return nil
	}
	return &cmdtypes.ExitError{
		Code:    cmdtypes.ExitGeneralError,
		Err:     fmt.Errorf("trees differ: %d added, %d removed, %d modified", len(res.Added), len(res.Removed), len(res.Modified)),
		Printed: true,
	}
}
