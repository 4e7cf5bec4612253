package templates

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/opmodel/stamp/internal/engine"
	oerrors "github.com/opmodel/stamp/internal/errors"
)

// LoadTree reads the project tree of the template stored at dir in fsys.
// The template directory must hold exactly one top-level directory whose
// name contains a substitution marker; it becomes the root node.
func LoadTree(fsys fs.FS, dir string) (*TemplateNode, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading template directory %s: %w", dir, err)
	}

	var roots []fs.DirEntry
	for _, e := range entries {
		if e.IsDir() && strings.Contains(e.Name(), "{{") {
			roots = append(roots, e)
		}
	}

	switch len(roots) {
	case 0:
		return nil, oerrors.NewValidationError("template has no project directory", dir,
			"", `Add one top-level directory whose name is templated, e.g. "{{ .project_slug }}".`)
	case 1:
	default:
		names := make([]string, len(roots))
		for i, r := range roots {
			names[i] = r.Name()
		}
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("template has %d project directories: %s", len(roots), strings.Join(names, ", ")),
			dir, "", "Keep exactly one templated top-level directory.")
	}

	root := &TemplateNode{Name: roots[0].Name(), Dir: true, Mode: fs.ModeDir | 0o755}
	if err := loadChildren(fsys, path.Join(dir, root.Name), root); err != nil {
		return nil, err
	}
	return root, nil
}

func loadChildren(fsys fs.FS, dir string, parent *TemplateNode) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	// fs.ReadDir returns entries sorted by name.
	for _, e := range entries {
		full := path.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", full, err)
		}

		node := &TemplateNode{
			Name: e.Name(),
			Path: path.Join(parent.Path, e.Name()),
			Dir:  e.IsDir(),
			Mode: info.Mode(),
		}

		if node.Dir {
			if err := loadChildren(fsys, full, node); err != nil {
				return err
			}
		} else {
			if !info.Mode().IsRegular() {
				return oerrors.NewValidationError("template contains a non-regular file", full, "", "Only files and directories are supported.")
			}
			content, err := fs.ReadFile(fsys, full)
			if err != nil {
				return fmt.Errorf("reading %s: %w", full, err)
			}
			node.Content = content
			node.Binary = engine.IsBinary(content)
		}

		parent.Children = append(parent.Children, node)
	}
	return nil
}
