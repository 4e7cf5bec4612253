package treediff

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"

	"github.com/opmodel/stamp/internal/engine"
)

// Result is the difference between two trees.
type Result struct {
	// Added paths exist only in the second tree.
	Added []string `json:"added"`

	// Removed paths exist only in the first tree.
	Removed []string `json:"removed"`

	// Modified files exist in both with different content or mode.
	Modified []ModifiedFile `json:"modified"`
}

// ModifiedFile is a file whose content or mode differs.
type ModifiedFile struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

// IsEmpty reports whether the trees are identical.
func (r *Result) IsEmpty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Options controls how differences are rendered.
type Options struct {
	// Color enables colored dyff output for YAML files.
	Color bool
}

// Compare compares the tree below rootA in a with the tree below rootB in b.
func Compare(a billy.Filesystem, rootA string, b billy.Filesystem, rootB string, opts Options) (*Result, error) {
	snapA, err := Snapshot(a, rootA)
	if err != nil {
		return nil, err
	}
	snapB, err := Snapshot(b, rootB)
	if err != nil {
		return nil, err
	}
	return CompareSnapshots(snapA, snapB, opts)
}

// CompareSnapshots compares two snapshots. Paths are reported in sorted order.
func CompareSnapshots(a, b map[string]File, opts Options) (*Result, error) {
	res := &Result{
		Added:    make([]string, 0),
		Removed:  make([]string, 0),
		Modified: make([]ModifiedFile, 0),
	}

	for _, p := range Paths(a) {
		if _, ok := b[p]; !ok {
			res.Removed = append(res.Removed, p)
		}
	}

	for _, p := range Paths(b) {
		fb := b[p]
		fa, ok := a[p]
		if !ok {
			res.Added = append(res.Added, p)
			continue
		}

		switch {
		case fa.Dir != fb.Dir:
			res.Modified = append(res.Modified, ModifiedFile{Path: p, Diff: "type changed between file and directory"})
		case fa.Dir:
		case !bytes.Equal(fa.Content, fb.Content):
			diff, err := diffContent(p, fa.Content, fb.Content, opts)
			if err != nil {
				return nil, err
			}
			res.Modified = append(res.Modified, ModifiedFile{Path: p, Diff: diff})
		case fa.Mode.Perm() != fb.Mode.Perm():
			res.Modified = append(res.Modified, ModifiedFile{
				Path: p,
				Diff: fmt.Sprintf("mode %s -> %s", fa.Mode.Perm(), fb.Mode.Perm()),
			})
		}
	}

	return res, nil
}

func diffContent(p string, a, b []byte, opts Options) (string, error) {
	if engine.IsBinary(a) || engine.IsBinary(b) {
		return fmt.Sprintf("binary content differs (%d -> %d bytes)", len(a), len(b)), nil
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		diff, err := diffYAML(a, b, opts.Color)
		// Files that are not valid YAML (e.g. templated leftovers) fall back to a line diff.
		if err == nil && diff != "" {
			return diff, nil
		}
	}
	return diffLines(string(a), string(b)), nil
}

// diffLines summarizes the first differing line of two texts.
func diffLines(a, b string) string {
	la := strings.Split(a, "\n")
	lb := strings.Split(b, "\n")
	n := max(len(la), len(lb))
	for i := 0; i < n; i++ {
		var x, y string
		if i < len(la) {
			x = la[i]
		}
		if i < len(lb) {
			y = lb[i]
		}
		if x != y || i >= len(la) || i >= len(lb) {
			return fmt.Sprintf("line %d\n-%s\n+%s", i+1, x, y)
		}
	}
	return "content differs"
}

// diffYAML computes a YAML-aware diff using dyff.
func diffYAML(a, b []byte, useColor bool) (string, error) {
	inputA, err := parseYAMLInput("a", a)
	if err != nil {
		return "", fmt.Errorf("parsing YAML: %w", err)
	}
	inputB, err := parseYAMLInput("b", b)
	if err != nil {
		return "", fmt.Errorf("parsing YAML: %w", err)
	}

	report, err := dyff.CompareInputFiles(inputA, inputB)
	if err != nil {
		return "", fmt.Errorf("comparing YAML: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	reportWriter := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}
	if err := reportWriter.WriteReport(io.Writer(&buf)); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// parseYAMLInput parses YAML bytes into a dyff input file.
func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{Location: name}, nil
	}

	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}
