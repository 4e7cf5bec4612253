package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))
	return configFile
}

func TestLoaderLoad(t *testing.T) {
	t.Run("loads config from file", func(t *testing.T) {
		configFile := writeConfig(t, `
sweep:
  workers: 8
  maxCases: 64
  mode: pairwise
  keepFailed: true
  outputRoot: /tmp/sweeps
generate:
  overwrite: true
log:
  timestamps: false
`)

		cfg, err := NewLoader().Load(configFile)
		require.NoError(t, err)

		assert.Equal(t, 8, cfg.Sweep.Workers)
		assert.Equal(t, 64, cfg.Sweep.MaxCases)
		assert.Equal(t, "pairwise", cfg.Sweep.Mode)
		assert.True(t, cfg.Sweep.KeepFailed)
		assert.Equal(t, "/tmp/sweeps", cfg.Sweep.OutputRoot)
		assert.True(t, cfg.Generate.Overwrite)
		assert.Equal(t, ".", cfg.Generate.OutputDir)
		require.NotNil(t, cfg.Log.Timestamps)
		assert.False(t, *cfg.Log.Timestamps)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "nonexistent.yaml")

		cfg, err := NewLoader().Load(configFile)
		require.NoError(t, err)
		assert.Equal(t, DefaultWorkers, cfg.Sweep.Workers)
		assert.Equal(t, DefaultMaxCases, cfg.Sweep.MaxCases)
		assert.Equal(t, "auto", cfg.Sweep.Mode)
	})

	t.Run("env vars override file values", func(t *testing.T) {
		t.Setenv("STAMP_SWEEP_WORKERS", "2")
		t.Setenv("STAMP_SWEEP_MODE", "full")
		configFile := writeConfig(t, "sweep:\n  workers: 8\n")

		cfg, err := NewLoader().Load(configFile)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Sweep.Workers)
		assert.Equal(t, "full", cfg.Sweep.Mode)
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		configFile := writeConfig(t, "sweep: [unclosed\n")

		_, err := NewLoader().Load(configFile)
		assert.Error(t, err)
	})
}
