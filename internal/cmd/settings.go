package cmd

import (
	"github.com/spf13/cast"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/config"
)

// settings resolves command settings against flags, env and the config file,
// recording where each value came from for verbose output.
type settings struct {
	loader   *config.Loader
	resolved []config.ResolvedValue
}

func newSettings(cfg *cmdtypes.GlobalConfig) *settings {
	return &settings{loader: cfg.LoaderOrDefault()}
}

func (s *settings) resolve(key string, flagValue any, flagSet bool) any {
	rv := s.loader.ResolveValue(config.ResolveValueOptions{
		Key:       key,
		FlagValue: flagValue,
		FlagSet:   flagSet,
	})
	s.resolved = append(s.resolved, rv)
	return rv.Value
}

func (s *settings) GetString(key, flagValue string, flagSet bool) string {
	return cast.ToString(s.resolve(key, flagValue, flagSet))
}

func (s *settings) GetInt(key string, flagValue int, flagSet bool) int {
	return cast.ToInt(s.resolve(key, flagValue, flagSet))
}

func (s *settings) GetBool(key string, flagValue, flagSet bool) bool {
	return cast.ToBool(s.resolve(key, flagValue, flagSet))
}

// Log writes the resolved values at debug level.
func (s *settings) Log() {
	config.LogResolvedValues(s.resolved)
}
