package config

import (
	"fmt"
	"os"

	"github.com/opmodel/stamp/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue is a configuration value and where it came from.
type ResolvedValue struct {
	Key    string
	Value  any
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]any
}

// ResolveValueOptions contains options for resolving one key.
type ResolveValueOptions struct {
	// Key is the configuration key, e.g. "sweep.workers".
	Key string

	// FlagValue is the flag value; it only counts when FlagSet is true.
	FlagValue any
	FlagSet   bool
}

// ResolveValue resolves a key using precedence:
// (1) flag, (2) STAMP_* env, (3) config file, (4) default.
// The loader must already have loaded its file.
func (l *Loader) ResolveValue(opts ResolveValueOptions) ResolvedValue {
	result := ResolvedValue{
		Key:      opts.Key,
		Shadowed: make(map[ConfigSource]any),
	}

	envValue, envSet := os.LookupEnv(EnvName(opts.Key))
	inFile := l.InFile(opts.Key)
	effective := l.v.Get(opts.Key)

	var fileValue any
	if inFile {
		fileValue = l.fileValue(opts.Key)
	}

	switch {
	case opts.FlagSet:
		result.Value = opts.FlagValue
		result.Source = SourceFlag
		if envSet {
			result.Shadowed[SourceEnv] = envValue
		}
		if inFile {
			result.Shadowed[SourceConfig] = fileValue
		}
	case envSet:
		result.Value = effective
		result.Source = SourceEnv
		if inFile {
			result.Shadowed[SourceConfig] = fileValue
		}
	case inFile:
		result.Value = effective
		result.Source = SourceConfig
	default:
		result.Value = effective
		result.Source = SourceDefault
	}
	return result
}

// fileValue reads key from the config file alone, bypassing env overrides.
func (l *Loader) fileValue(key string) any {
	file := l.v.ConfigFileUsed()
	if file == "" {
		return nil
	}
	fv := newFileViper(file)
	if fv == nil {
		return nil
	}
	return fv.Get(key)
}

// ResolveConfigPathOptions contains options for config path resolution.
type ResolveConfigPathOptions struct {
	// FlagValue is the --config flag value (empty if not set).
	FlagValue string
}

// ResolveConfigPathResult contains the resolved config path and its source.
type ResolveConfigPathResult struct {
	// ConfigPath is the resolved config file path.
	ConfigPath string
	// Source indicates where the config path came from.
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) STAMP_CONFIG env, (3) ~/.stamp/config.yaml default
func ResolveConfigPath(opts ResolveConfigPathOptions) (ResolveConfigPathResult, error) {
	result := ResolveConfigPathResult{
		Shadowed: make(map[ConfigSource]string),
	}

	envValue := os.Getenv("STAMP_CONFIG")

	paths, err := DefaultPaths()
	if err != nil {
		return result, err
	}
	defaultPath := paths.ConfigFile

	switch {
	case opts.FlagValue != "":
		result.ConfigPath = opts.FlagValue
		result.Source = SourceFlag
		if envValue != "" {
			result.Shadowed[SourceEnv] = envValue
		}
		result.Shadowed[SourceDefault] = defaultPath
	case envValue != "":
		result.ConfigPath = envValue
		result.Source = SourceEnv
		result.Shadowed[SourceDefault] = defaultPath
	default:
		result.ConfigPath = defaultPath
		result.Source = SourceDefault
	}

	return result, nil
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", fmt.Sprint(v.Value),
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", fmt.Sprint(shadowed),
			)
		}
	}
}
