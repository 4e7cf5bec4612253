package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveValue(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		env        string
		flag       any
		flagSet    bool
		wantValue  any
		wantSource ConfigSource
		shadowed   []ConfigSource
	}{
		{
			name:       "default",
			wantValue:  DefaultWorkers,
			wantSource: SourceDefault,
		},
		{
			name:       "config file",
			file:       "sweep:\n  workers: 8\n",
			wantValue:  8,
			wantSource: SourceConfig,
		},
		{
			name:       "env over file",
			file:       "sweep:\n  workers: 8\n",
			env:        "2",
			wantValue:  "2",
			wantSource: SourceEnv,
			shadowed:   []ConfigSource{SourceConfig},
		},
		{
			name:       "flag over everything",
			file:       "sweep:\n  workers: 8\n",
			env:        "2",
			flag:       16,
			flagSet:    true,
			wantValue:  16,
			wantSource: SourceFlag,
			shadowed:   []ConfigSource{SourceEnv, SourceConfig},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("STAMP_SWEEP_WORKERS", tt.env)
			}
			configFile := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.file != "" {
				configFile = writeConfig(t, tt.file)
			}

			loader := NewLoader()
			_, err := loader.Load(configFile)
			require.NoError(t, err)

			got := loader.ResolveValue(ResolveValueOptions{Key: KeySweepWorkers, FlagValue: tt.flag, FlagSet: tt.flagSet})
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.Len(t, got.Shadowed, len(tt.shadowed))
			for _, s := range tt.shadowed {
				assert.Contains(t, got.Shadowed, s)
			}
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("STAMP_HOME", home)
	defaultPath := filepath.Join(home, "config.yaml")

	t.Run("default", func(t *testing.T) {
		res, err := ResolveConfigPath(ResolveConfigPathOptions{})
		require.NoError(t, err)
		assert.Equal(t, defaultPath, res.ConfigPath)
		assert.Equal(t, SourceDefault, res.Source)
		assert.Empty(t, res.Shadowed)
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("STAMP_CONFIG", "/env/config.yaml")
		res, err := ResolveConfigPath(ResolveConfigPathOptions{})
		require.NoError(t, err)
		assert.Equal(t, "/env/config.yaml", res.ConfigPath)
		assert.Equal(t, SourceEnv, res.Source)
		assert.Equal(t, defaultPath, res.Shadowed[SourceDefault])
	})

	t.Run("flag", func(t *testing.T) {
		t.Setenv("STAMP_CONFIG", "/env/config.yaml")
		res, err := ResolveConfigPath(ResolveConfigPathOptions{FlagValue: "/flag/config.yaml"})
		require.NoError(t, err)
		assert.Equal(t, "/flag/config.yaml", res.ConfigPath)
		assert.Equal(t, SourceFlag, res.Source)
		assert.Equal(t, "/env/config.yaml", res.Shadowed[SourceEnv])
	})
}
