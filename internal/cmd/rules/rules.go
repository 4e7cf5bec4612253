// Package rules provides CLI command implementations for the rules command group.
package rules

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmdtypes"
)

// NewRulesCmd creates the rules command group.
func NewRulesCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the prune rules of a template",
		Long:  `Inspect and check the conditional prune rules of a template's post-generation hook.`,
	}

	c.AddCommand(NewRulesListCmd(cfg))
	c.AddCommand(NewRulesCheckCmd(cfg))

	return c
}
