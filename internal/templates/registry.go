package templates

import (
	"os"
	"sort"
	"strings"
)

// BuiltinPrefix marks a reference to an embedded template.
const BuiltinPrefix = "builtin:"

// DefaultTemplateName is the built-in template used in examples and docs.
const DefaultTemplateName = "python"

// BuiltinInfo describes an embedded template.
type BuiltinInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// builtins is the registry of embedded templates.
var builtins = map[string]BuiltinInfo{
	"python": {
		Name:        "python",
		Description: "Python package with src/flat layout, optional Dockerfile, docs, CI and license",
	},
}

// Open resolves a template reference: "builtin:<name>", a directory path,
// or a bare built-in name when no such directory exists.
func Open(ref string) (*Template, error) {
	if name, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		return loadBuiltin(name)
	}
	if _, err := os.Stat(ref); err != nil {
		if _, ok := builtins[ref]; ok {
			return loadBuiltin(ref)
		}
	}
	return loadDir(ref)
}

// Builtins returns the embedded templates sorted by name.
func Builtins() []BuiltinInfo {
	out := make([]BuiltinInfo, 0, len(builtins))
	for _, b := range builtins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isBuiltinRef(ref string) bool {
	return strings.HasPrefix(ref, BuiltinPrefix)
}

func joinNames() string {
	names := make([]string, 0, len(builtins))
	for _, b := range Builtins() {
		names = append(names, BuiltinPrefix+b.Name)
	}
	return strings.Join(names, ", ")
}
