// Package treediff snapshots and compares generated trees.
package treediff

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// File is a snapshot of one tree entry.
type File struct {
	Dir     bool
	Mode    fs.FileMode
	Content []byte
}

// Snapshot reads every entry below root into memory, keyed by slash path
// relative to root. Root itself is not included.
func Snapshot(fsys billy.Filesystem, root string) (map[string]File, error) {
	out := make(map[string]File)
	if err := walk(fsys, root, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func walk(fsys billy.Filesystem, root, rel string, out map[string]File) error {
	dir := root
	if rel != "" {
		dir = path.Join(root, rel)
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		childRel := path.Join(rel, e.Name())
		if e.IsDir() {
			out[childRel] = File{Dir: true, Mode: e.Mode()}
			if err := walk(fsys, root, childRel, out); err != nil {
				return err
			}
			continue
		}
		content, err := util.ReadFile(fsys, path.Join(root, childRel))
		if err != nil {
			return fmt.Errorf("reading %s: %w", childRel, err)
		}
		out[childRel] = File{Mode: e.Mode(), Content: content}
	}
	return nil
}

// Paths returns the snapshot's paths in sorted order.
func Paths(snap map[string]File) []string {
	paths := make([]string, 0, len(snap))
	for p := range snap {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Files returns only the file paths of the snapshot, sorted.
func Files(snap map[string]File) []string {
	var paths []string
	for _, p := range Paths(snap) {
		if !snap[p].Dir {
			paths = append(paths, p)
		}
	}
	return paths
}
