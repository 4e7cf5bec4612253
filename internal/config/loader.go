package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for stamp configuration.
const envPrefix = "STAMP"

// Config keys.
const (
	KeySweepWorkers      = "sweep.workers"
	KeySweepMaxCases     = "sweep.maxCases"
	KeySweepMode         = "sweep.mode"
	KeySweepKeepFailed   = "sweep.keepFailed"
	KeySweepOutputRoot   = "sweep.outputRoot"
	KeyGenerateOverwrite = "generate.overwrite"
	KeyGenerateOutputDir = "generate.outputDir"
	KeyLogTimestamps     = "log.timestamps"
)

// Keys lists every configuration key in display order.
var Keys = []string{
	KeySweepWorkers,
	KeySweepMaxCases,
	KeySweepMode,
	KeySweepKeepFailed,
	KeySweepOutputRoot,
	KeyGenerateOverwrite,
	KeyGenerateOutputDir,
	KeyLogTimestamps,
}

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader with defaults and
// environment bindings for every key.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault(KeySweepWorkers, def.Sweep.Workers)
	v.SetDefault(KeySweepMaxCases, def.Sweep.MaxCases)
	v.SetDefault(KeySweepMode, def.Sweep.Mode)
	v.SetDefault(KeySweepKeepFailed, false)
	v.SetDefault(KeySweepOutputRoot, "")
	v.SetDefault(KeyGenerateOverwrite, false)
	v.SetDefault(KeyGenerateOutputDir, def.Generate.OutputDir)
	v.SetDefault(KeyLogTimestamps, true)

	return &Loader{v: v}
}

// Load loads configuration from the given file path.
// If configFile is empty, it uses the default config file path.
// A missing file is not an error. Environment variables take precedence
// over file values.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// InFile reports whether key was set in the loaded config file.
func (l *Loader) InFile(key string) bool {
	return l.v.InConfig(strings.ToLower(key))
}

// Get returns the effective value of key.
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// ConfigFileUsed returns the path of the config file, if one was set.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// EnvName returns the environment variable bound to key.
func EnvName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// newFileViper reads file without defaults or environment bindings.
func newFileViper(file string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil
	}
	return v
}
