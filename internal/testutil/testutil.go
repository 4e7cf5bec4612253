// Package testutil provides test helpers for stamp tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// WriteFiles writes every name -> content pair below dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
}

// LayoutTemplate is a small template with a layout choice, an optional
// Dockerfile and a package directory that moves with the layout.
var LayoutTemplate = map[string]string{
	"schema.yaml": `project_slug: demo
layout: [flat, src]
dockerfile: ["n", "y"]
`,
	"hooks.yaml": `validate:
  identifiers: [project_slug]
rules:
  - name: no-dockerfile
    when: {key: dockerfile, equals: "n"}
    remove: [Dockerfile]
  - name: flat-layout
    when: {key: layout, equals: flat}
    remove: [src]
  - name: src-layout
    when: {key: layout, equals: src}
    remove: ["{{ .project_slug }}"]
`,
	"{{ .project_slug }}/README.md":                           "# {{ .project_slug }}\n\nLayout: {{ .layout }}\n",
	"{{ .project_slug }}/Dockerfile":                          "FROM python:3.12-slim\nCOPY {{ if eq .layout \"src\" }}src/{{ end }}{{ .project_slug }} /app\n",
	"{{ .project_slug }}/src/{{ .project_slug }}/__init__.py": "NAME = \"{{ .project_slug }}\"\n",
	"{{ .project_slug }}/{{ .project_slug }}/__init__.py":     "NAME = \"{{ .project_slug }}\"\n",
}

// BoolTemplate is a template with three yes/no options, each pruning one file.
var BoolTemplate = map[string]string{
	"schema.yaml": `name: app
docs: ["y", "n"]
ci: ["y", "n"]
docker: ["y", "n"]
`,
	"hooks.yaml": `rules:
  - name: no-docs
    when: {key: docs, equals: "n"}
    remove: [docs]
  - name: no-ci
    when: {key: ci, equals: "n"}
    remove: [ci.yml]
  - name: no-docker
    when: {key: docker, equals: "n"}
    remove: [Dockerfile]
`,
	"{{ .name }}/README.md":     "# {{ .name }}\n",
	"{{ .name }}/docs/index.md": "docs for {{ .name }}\n",
	"{{ .name }}/ci.yml":        "name: {{ .name }}\non: push\n",
	"{{ .name }}/Dockerfile":    "FROM scratch\n",
}

// Template writes a template fixture into a fresh temporary directory and
// returns its path.
func Template(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	return dir
}

// With returns a copy of files with overrides applied. An empty override
// value deletes the file.
func With(files map[string]string, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(files)+len(overrides))
	for k, v := range files {
		out[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
