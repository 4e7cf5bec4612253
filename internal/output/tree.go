package output

import (
	"sort"
	"strings"
)

const (
	branchMid  = "├── "
	branchEnd  = "└── "
	indentPipe = "│   "
	indentGap  = "    "
)

// treeDir is one directory of a generated tree being rendered.
type treeDir struct {
	dirs  map[string]*treeDir
	files []string
}

func newTreeDir() *treeDir {
	return &treeDir{dirs: map[string]*treeDir{}}
}

// add inserts a slash path below d.
func (d *treeDir) add(p string) {
	dir, name, nested := strings.Cut(p, "/")
	if !nested {
		if _, isDir := d.dirs[dir]; !isDir {
			d.files = append(d.files, dir)
		}
		return
	}
	child, ok := d.dirs[dir]
	if !ok {
		child = newTreeDir()
		d.dirs[dir] = child
		d.files = removeName(d.files, dir)
	}
	child.add(name)
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// RenderGeneratedTree draws the files of a generated project below rootName,
// directories first, each level sorted by name. Notes annotate paths, for
// example files a rewrite touched.
func RenderGeneratedTree(rootName string, files []string, notes map[string]string) string {
	if len(files) == 0 {
		return ""
	}
	root := newTreeDir()
	for _, f := range files {
		root.add(strings.TrimPrefix(strings.ReplaceAll(f, "\\", "/"), "/"))
	}

	var sb strings.Builder
	sb.WriteString(StyleSummary.Render(strings.TrimSuffix(rootName, "/") + "/"))
	sb.WriteString("\n")
	root.render(&sb, "", "", notes)
	return sb.String()
}

func (d *treeDir) render(sb *strings.Builder, indent, rel string, notes map[string]string) {
	dirNames := make([]string, 0, len(d.dirs))
	for name := range d.dirs {
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	fileNames := append([]string(nil), d.files...)
	sort.Strings(fileNames)

	total := len(dirNames) + len(fileNames)
	for i, name := range append(dirNames, fileNames...) {
		last := i == total-1
		branch, next := branchMid, indentPipe
		if last {
			branch, next = branchEnd, indentGap
		}

		p := name
		if rel != "" {
			p = rel + "/" + name
		}

		if child, isDir := d.dirs[name]; isDir && i < len(dirNames) {
			sb.WriteString(indent + branch + name + "/\n")
			child.render(sb, indent+next, p, notes)
			continue
		}

		sb.WriteString(indent + branch + name)
		if note := notes[p]; note != "" {
			sb.WriteString("  ")
			sb.WriteString(StyleDim.Render(note))
		}
		sb.WriteString("\n")
	}
}
