package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/stamp/internal/cmdtypes"
	"github.com/opmodel/stamp/internal/config"
)

func globalConfig(t *testing.T) (*cmdtypes.GlobalConfig, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stamp", "config.yaml")
	return &cmdtypes.GlobalConfig{ConfigPath: path}, path
}

func TestNewConfigInitCmd(t *testing.T) {
	cmd := NewConfigInitCmd(nil)

	assert.Equal(t, "init", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.Flags().Lookup("force"))
}

func TestConfigInit_CreatesValidFile(t *testing.T) {
	cfg, path := globalConfig(t)

	cmd := NewConfigInitCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), path)
	assert.FileExists(t, path)

	v, err := config.NewValidator()
	require.NoError(t, err)
	assert.NoError(t, v.ValidateFile(path))

	loaded, err := config.NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultWorkers, loaded.Sweep.Workers)
	assert.Equal(t, config.DefaultMode, loaded.Sweep.Mode)
}

func TestConfigInit_SecurePermissions(t *testing.T) {
	cfg, path := globalConfig(t)

	cmd := NewConfigInitCmd(cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fileInfo.Mode().Perm())
}

func TestConfigInit_ExistingConfig(t *testing.T) {
	cfg, path := globalConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("sweep:\n  workers: 2\n"), 0o600))

	cmd := NewConfigInitCmd(cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)

	var exitErr *cmdtypes.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cmdtypes.ExitGeneralError, exitErr.Code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sweep:\n  workers: 2\n", string(data))

	cmd = NewConfigInitCmd(cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--force"})
	require.NoError(t, cmd.Execute())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workers: 4")
}

func TestConfigVet(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode int
	}{
		{name: "valid", content: "sweep:\n  workers: 8\n  mode: pairwise\n"},
		{name: "invalid mode", content: "sweep:\n  mode: random\n", wantCode: cmdtypes.ExitValidationError},
		{name: "unknown key", content: "output: json\n", wantCode: cmdtypes.ExitValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, path := globalConfig(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			cmd := NewConfigVetCmd(cfg)
			var out, errOut bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&errOut)
			cmd.SetArgs([]string{})

			err := cmd.Execute()
			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.Contains(t, out.String(), "valid")
				return
			}
			var exitErr *cmdtypes.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.wantCode, exitErr.Code)
			assert.Contains(t, errOut.String(), "config validation failed")
		})
	}
}

func TestConfigVet_Missing(t *testing.T) {
	cfg, _ := globalConfig(t)

	cmd := NewConfigVetCmd(cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	var exitErr *cmdtypes.ExitError
	require.ErrorAs(t, cmd.Execute(), &exitErr)
	assert.Equal(t, cmdtypes.ExitNotFound, exitErr.Code)
}
