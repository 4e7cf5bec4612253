// Package cmdtypes provides shared types for the cmd package and its sub-packages.
// It is separate from internal/cmd to avoid import cycles between internal/cmd
// and its sub-packages (internal/cmd/config, internal/cmd/rules).
package cmdtypes

import (
	"github.com/opmodel/stamp/internal/config"
	oerrors "github.com/opmodel/stamp/internal/errors"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every sub-command
// constructor.
type GlobalConfig struct {
	Config     *config.Config
	Loader     *config.Loader
	ConfigPath string // resolved --config path
	Verbose    bool
}

// Exit codes, aliased from internal/errors.
const (
	ExitSuccess         = oerrors.ExitSuccess
	ExitGeneralError    = oerrors.ExitGeneralError
	ExitValidationError = oerrors.ExitValidationError
	ExitRenderError     = oerrors.ExitRenderError
	ExitPruneError      = oerrors.ExitPruneError
	ExitNotFound        = oerrors.ExitNotFound
	ExitSweepFailed     = oerrors.ExitSweepFailed
)

// ExitError is a type alias to internal/errors.ExitError.
type ExitError = oerrors.ExitError

// LoaderOrDefault returns the loaded configuration loader, or a fresh one
// when the command runs without the root command's pre-run.
func (g *GlobalConfig) LoaderOrDefault() *config.Loader {
	if g == nil || g.Loader == nil {
		return config.NewLoader()
	}
	return g.Loader
}
