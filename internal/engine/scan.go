package engine

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"
	"unicode/utf8"
)

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 8000

var (
	// actionRegex matches a template action, or an unterminated one running
	// to the end of the line. Group 1 is the action body.
	actionRegex = regexp.MustCompile(`\{\{-?\s*(.*?)\s*(?:-?\}\}|$)`)

	// markerBodyRegex matches action bodies that reference dot, a field or a
	// variable, or start with a keyword. CI expressions such as
	// "{{ matrix.os }}" do not.
	markerBodyRegex = regexp.MustCompile(`^(?:\.|(?:if|else|end|range|with|define|template|block)\b)|(?:^|[\s(|,])\.[A-Za-z_]|\$`)
)

// Marker is a residual substitution marker found in rendered output.
type Marker struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// ResidualMarkers returns every substitution marker left in text.
func ResidualMarkers(text string) []Marker {
	var markers []Marker
	for i, line := range strings.Split(text, "\n") {
		for _, m := range actionRegex.FindAllStringSubmatch(line, -1) {
			if markerBodyRegex.MatchString(m[1]) {
				markers = append(markers, Marker{Line: i + 1, Text: m[0]})
			}
		}
	}
	return markers
}

// IsBinary reports whether content should be copied instead of rendered:
// it has a NUL byte near the start or is not valid UTF-8.
func IsBinary(content []byte) bool {
	head := content
	if len(head) > binarySniffLen {
		head = head[:binarySniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	return !utf8.Valid(content)
}

// treeReferences collects top-level field names from every template
// defined in tmpl. Fields inside range and with bodies are relative to a
// different dot and are skipped, except through $.
func treeReferences(tmpl *template.Template) []string {
	seen := make(map[string]bool)
	for _, t := range tmpl.Templates() {
		if t.Tree == nil || t.Tree.Root == nil {
			continue
		}
		walk(t.Tree.Root, true, seen)
	}

	refs := make([]string, 0, len(seen))
	for k := range seen {
		refs = append(refs, k)
	}
	sort.Strings(refs)
	return refs
}

func walk(node parse.Node, rootDot bool, seen map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			walk(child, rootDot, seen)
		}
	case *parse.ActionNode:
		walk(n.Pipe, rootDot, seen)
	case *parse.IfNode:
		walk(n.Pipe, rootDot, seen)
		walk(n.List, rootDot, seen)
		walk(n.ElseList, rootDot, seen)
	case *parse.RangeNode:
		walk(n.Pipe, rootDot, seen)
		walk(n.List, false, seen)
		walk(n.ElseList, rootDot, seen)
	case *parse.WithNode:
		walk(n.Pipe, rootDot, seen)
		walk(n.List, false, seen)
		walk(n.ElseList, rootDot, seen)
	case *parse.TemplateNode:
		walk(n.Pipe, rootDot, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			walk(cmd, rootDot, seen)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			walk(arg, rootDot, seen)
		}
	case *parse.FieldNode:
		if rootDot && len(n.Ident) > 0 {
			seen[n.Ident[0]] = true
		}
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			seen[n.Ident[1]] = true
		}
	case *parse.ChainNode:
		walk(n.Node, rootDot, seen)
	}
}
