// Package templates loads project templates and renders their trees.
package templates

import (
	"io/fs"

	"github.com/opmodel/stamp/internal/hooks"
	"github.com/opmodel/stamp/internal/schema"
)

// Template is a loaded project template.
type Template struct {
	// Name identifies the template (built-in name or directory base name).
	Name string

	// Description is a one-line summary.
	Description string

	// Source is the reference the template was opened from.
	Source string

	// Schema declares the template's variables.
	Schema *schema.Schema

	// Hooks configures the pre- and post-generation hooks.
	Hooks *hooks.Manifest

	// Root is the project directory node; its name contains a substitution marker.
	Root *TemplateNode
}

// TemplateNode is a file or directory of a template tree.
type TemplateNode struct {
	// Name is the unrendered path segment.
	Name string

	// Path is the unrendered slash path relative to the project root
	// ("" for the root itself).
	Path string

	// Dir is true for directories.
	Dir bool

	// Children are ordered by name. Directories only.
	Children []*TemplateNode

	// Content is the raw file content. Files only.
	Content []byte

	// Mode holds the permission bits.
	Mode fs.FileMode

	// Binary is true when Content is copied without rendering.
	Binary bool
}

// Walk visits n and its descendants depth first, parents before children.
func (n *TemplateNode) Walk(fn func(*TemplateNode) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of files and directories below n, n excluded.
func (n *TemplateNode) Count() (files, dirs int) {
	_ = n.Walk(func(c *TemplateNode) error {
		switch {
		case c == n:
		case c.Dir:
			dirs++
		default:
			files++
		}
		return nil
	})
	return files, dirs
}

// RenderResult describes a rendered tree.
type RenderResult struct {
	// ProjectDir is the rendered project directory name.
	ProjectDir string `json:"projectDir"`

	// Files lists created or overwritten files relative to ProjectDir, in creation order.
	Files []string `json:"files"`

	// Dirs lists created directories relative to ProjectDir, in creation order.
	Dirs []string `json:"dirs"`

	created []string
}
