package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultWorkers, cfg.Sweep.Workers)
	assert.Equal(t, DefaultMaxCases, cfg.Sweep.MaxCases)
	assert.Equal(t, "auto", cfg.Sweep.Mode)
	assert.False(t, cfg.Sweep.KeepFailed)
	assert.Equal(t, ".", cfg.Generate.OutputDir)
	require.NotNil(t, cfg.Log.Timestamps)
	assert.True(t, *cfg.Log.Timestamps)
}

func TestEnvName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{KeySweepWorkers, "STAMP_SWEEP_WORKERS"},
		{KeySweepMaxCases, "STAMP_SWEEP_MAXCASES"},
		{KeyGenerateOverwrite, "STAMP_GENERATE_OVERWRITE"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, EnvName(tt.key))
		})
	}
}
