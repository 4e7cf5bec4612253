// Package config provides configuration loading and management.
package config

// SweepConfig contains defaults for `stamp sweep`.
type SweepConfig struct {
	// Workers bounds concurrently generated cases.
	// Env: STAMP_SWEEP_WORKERS, Default: 4
	Workers int `json:"workers,omitempty" mapstructure:"workers"`

	// MaxCases caps the number of combinations; -1 means unlimited.
	// Env: STAMP_SWEEP_MAXCASES, Default: 256
	MaxCases int `json:"maxCases,omitempty" mapstructure:"maxCases"`

	// Mode is the enumeration mode: auto, full or pairwise.
	// Env: STAMP_SWEEP_MODE, Default: auto
	Mode string `json:"mode,omitempty" mapstructure:"mode"`

	// KeepFailed keeps the directories of failing cases.
	KeepFailed bool `json:"keepFailed,omitempty" mapstructure:"keepFailed"`

	// OutputRoot is where case directories are created.
	// Default: a fresh temporary directory per sweep.
	OutputRoot string `json:"outputRoot,omitempty" mapstructure:"outputRoot"`
}

// GenerateConfig contains defaults for `stamp generate`.
type GenerateConfig struct {
	// Overwrite allows rendering into an existing project directory.
	Overwrite bool `json:"overwrite,omitempty" mapstructure:"overwrite"`

	// OutputDir is the directory projects are generated in. Default: "."
	OutputDir string `json:"outputDir,omitempty" mapstructure:"outputDir"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" mapstructure:"timestamps"`
}

// Config represents the stamp configuration.
// Loaded from ~/.stamp/config.yaml, validated against an embedded CUE schema.
type Config struct {
	Sweep    SweepConfig    `json:"sweep" mapstructure:"sweep"`
	Generate GenerateConfig `json:"generate" mapstructure:"generate"`
	Log      LogConfig      `json:"log,omitempty" mapstructure:"log"`
}

// Defaults.
const (
	DefaultWorkers   = 4
	DefaultMaxCases  = 256
	DefaultMode      = "auto"
	DefaultOutputDir = "."
)

// DefaultConfig returns a Config with all default values populated.
// Used by `stamp config init` to generate the initial config file.
func DefaultConfig() *Config {
	timestamps := true
	return &Config{
		Sweep: SweepConfig{
			Workers:  DefaultWorkers,
			MaxCases: DefaultMaxCases,
			Mode:     DefaultMode,
		},
		Generate: GenerateConfig{
			OutputDir: DefaultOutputDir,
		},
		Log: LogConfig{Timestamps: &timestamps},
	}
}
