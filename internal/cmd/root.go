// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/stamp/internal/cmd/config"
	"github.com/opmodel/stamp/internal/cmd/rules"
	"github.com/opmodel/stamp/internal/cmdtypes"
	cfgpkg "github.com/opmodel/stamp/internal/config"
	"github.com/opmodel/stamp/internal/output"
)

// NewRootCmd creates the root command for the stamp CLI.
func NewRootCmd() *cobra.Command {
	var (
		configFlag     string
		verboseFlag    bool
		timestampsFlag bool
	)

	cfg := &cmdtypes.GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "stamp",
		Short: "Project template generator",
		Long: `stamp generates project skeletons from templates and validates that
every combination of a template's options renders a correct project.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return initializeGlobals(c, cfg, configFlag, verboseFlag, timestampsFlag)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: STAMP_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewGenerateCmd(cfg))
	rootCmd.AddCommand(NewSweepCmd(cfg))
	rootCmd.AddCommand(NewSchemaCmd(cfg))
	rootCmd.AddCommand(NewDiffCmd(cfg))
	rootCmd.AddCommand(NewListCmd(cfg))
	rootCmd.AddCommand(rules.NewRulesCmd(cfg))
	rootCmd.AddCommand(config.NewConfigCmd(cfg))
	rootCmd.AddCommand(NewVersionCmd(cfg))

	return rootCmd
}

// initializeGlobals loads configuration into cfg and sets up logging.
func initializeGlobals(c *cobra.Command, cfg *cmdtypes.GlobalConfig, configFlag string, verbose, timestamps bool) error {
	pathResult, err := cfgpkg.ResolveConfigPath(cfgpkg.ResolveConfigPathOptions{FlagValue: configFlag})
	if err != nil {
		return err
	}

	loader := cfgpkg.NewLoader()
	loaded, err := loader.Load(pathResult.ConfigPath)
	if err != nil {
		// Commands that do not read config still work; config vet reports the problem.
		output.Debug("config load error", "error", err)
		loaded = cfgpkg.DefaultConfig()
	}

	cfg.Config = loaded
	cfg.Loader = loader
	cfg.ConfigPath = pathResult.ConfigPath
	cfg.Verbose = verbose

	logCfg := output.LogConfig{Verbose: verbose}
	if c.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestamps)
	} else if loaded.Log.Timestamps != nil {
		logCfg.Timestamps = loaded.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	output.Debug("initializing CLI",
		"config", pathResult.ConfigPath,
		"config_source", pathResult.Source,
	)
	return nil
}
