package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// ReplayStore keeps the answers of the last generation per template.
type ReplayStore struct {
	dir string
}

// NewReplayStore returns a store in dir. An empty dir means the default
// replay directory.
func NewReplayStore(dir string) (*ReplayStore, error) {
	if dir == "" {
		var err error
		dir, err = GetReplayDir()
		if err != nil {
			return nil, err
		}
	}
	return &ReplayStore{dir: dir}, nil
}

// Path returns the replay file of a template.
func (s *ReplayStore) Path(template string) string {
	return filepath.Join(s.dir, replayName(template)+".yaml")
}

// Save records answers for template.
func (s *ReplayStore) Save(template string, answers map[string]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating replay directory: %w", err)
	}
	data, err := yaml.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}
	return os.WriteFile(s.Path(template), data, 0o644)
}

// Load returns the answers recorded for template. The boolean is false when
// nothing has been recorded.
func (s *ReplayStore) Load(template string) (map[string]string, bool, error) {
	data, err := os.ReadFile(s.Path(template))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading replay file: %w", err)
	}

	answers := make(map[string]string)
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, false, fmt.Errorf("decoding replay file %s: %w", s.Path(template), err)
	}
	return answers, true, nil
}

// replayName turns a template name or reference into a file name.
func replayName(template string) string {
	r := strings.NewReplacer(":", "-", "/", "-", `\`, "-")
	name := strings.Trim(r.Replace(template), "-.")
	if name == "" {
		return "template"
	}
	return name
}
