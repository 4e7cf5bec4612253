package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/hooks"
	"github.com/opmodel/stamp/internal/schema"
)

//go:embed all:builtin
var builtinFS embed.FS

// builtinRoot is the directory of built-in templates inside builtinFS.
const builtinRoot = "builtin"

// Load reads a template stored at dir in fsys: its schema, hooks manifest
// and project tree.
func Load(fsys fs.FS, dir, name, source string) (*Template, error) {
	s, err := loadSchema(fsys, dir, source)
	if err != nil {
		return nil, err
	}

	manifest := &hooks.Manifest{}
	hooksPath := path.Join(dir, hooks.FileName)
	data, err := fs.ReadFile(fsys, hooksPath)
	switch {
	case err == nil:
		manifest, err = hooks.Parse(data, displayPath(source, hooks.FileName), s)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading %s: %w", hooksPath, err)
	}

	root, err := LoadTree(fsys, dir)
	if err != nil {
		return nil, err
	}

	return &Template{
		Name:   name,
		Source: source,
		Schema: s,
		Hooks:  manifest,
		Root:   root,
	}, nil
}

func loadSchema(fsys fs.FS, dir, source string) (*schema.Schema, error) {
	for _, name := range []string{schema.FileYAML, schema.FileJSON} {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return schema.Parse(data, displayPath(source, name))
	}
	return nil, oerrors.NewNotFoundError("template has no schema", source,
		fmt.Sprintf("Create %s or %s in the template directory.", schema.FileYAML, schema.FileJSON))
}

// displayPath names a template file for error messages.
func displayPath(source, name string) string {
	if isBuiltinRef(source) {
		return source + "/" + name
	}
	return filepath.Join(source, name)
}

// loadBuiltin loads an embedded template by name.
func loadBuiltin(name string) (*Template, error) {
	info, ok := builtins[name]
	if !ok {
		return nil, oerrors.NewNotFoundError(fmt.Sprintf("unknown built-in template %q", name), BuiltinPrefix+name,
			fmt.Sprintf("Built-in templates: %s", joinNames()))
	}
	t, err := Load(builtinFS, path.Join(builtinRoot, name), name, BuiltinPrefix+name)
	if err != nil {
		return nil, err
	}
	t.Description = info.Description
	return t, nil
}

// loadDir loads a template from a directory on disk.
func loadDir(dir string) (*Template, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, oerrors.NewNotFoundError("template not found", dir,
				fmt.Sprintf("Pass a template directory or one of: %s", joinNames()))
		}
		return nil, fmt.Errorf("reading template %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, oerrors.NewValidationError("template must be a directory", dir, "", "")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	return Load(os.DirFS(abs), ".", filepath.Base(abs), dir)
}
