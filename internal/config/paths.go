package config

import (
	"os"
	"path/filepath"
)

// Paths contains standard filesystem paths for stamp.
type Paths struct {
	// ConfigFile is the path to the config file (~/.stamp/config.yaml).
	ConfigFile string

	// ReplayDir stores the answers of previous generations (~/.stamp/replay).
	ReplayDir string

	// HomeDir is the stamp home directory (~/.stamp).
	HomeDir string
}

// DefaultPaths returns the default paths for stamp.
// If STAMP_HOME is set, it replaces ~/.stamp.
func DefaultPaths() (*Paths, error) {
	stampHome := os.Getenv("STAMP_HOME")
	if stampHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		stampHome = filepath.Join(homeDir, ".stamp")
	}

	return &Paths{
		ConfigFile: filepath.Join(stampHome, "config.yaml"),
		ReplayDir:  filepath.Join(stampHome, "replay"),
		HomeDir:    stampHome,
	}, nil
}

// GetConfigFile returns the config file path.
// If STAMP_CONFIG is set, it takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv("STAMP_CONFIG"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

// GetReplayDir returns the replay directory path.
func GetReplayDir() (string, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	return paths.ReplayDir, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// Handle ~username (not supported, return as-is)
	return path, nil
}
