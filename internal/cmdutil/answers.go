package cmdutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	oerrors "github.com/opmodel/stamp/internal/errors"
)

// ParseSet parses key=value pairs. The value may be empty and may contain '='.
func ParseSet(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("invalid --set value %q", p), "", "",
				"use key=value")
		}
		out[key] = value
	}
	return out, nil
}

// LoadAnswersFile reads a flat mapping of answers. Files ending in .json are
// decoded as JSON, everything else as YAML. Scalars are converted to strings;
// nested values are rejected.
func LoadAnswersFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, oerrors.NewNotFoundError("answers file not found", path, "")
		}
		return nil, fmt.Errorf("reading answers file: %w", err)
	}

	raw := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, oerrors.NewValidationError("answers file is not a mapping", path, "", err.Error())
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(raw))
	for _, k := range keys {
		switch v := raw[k].(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = v
		case map[string]any, []any:
			return nil, oerrors.NewValidationError("answer must be a scalar", path, k, "")
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}
