// Package pipeline runs one project generation: resolve the context, gate it
// with the pre-generation hook, render the tree, then prune and rewrite it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/hooks"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/resolve"
	"github.com/opmodel/stamp/internal/templates"
	"github.com/opmodel/stamp/internal/treediff"
)

// Options configures a generation run.
type Options struct {
	// OutputDir is the directory the project directory is created in.
	// It is created when missing.
	OutputDir string

	// Filesystem holds OutputDir. Nil means the local disk.
	Filesystem billy.Filesystem

	// Answers are the supplied values; absent keys take their defaults
	// unless Prompter asks for them.
	Answers map[string]string

	// Prompter, when set, is asked for every key missing from Answers.
	Prompter resolve.Prompter

	// Overwrite allows rendering into an existing, non-empty project directory.
	Overwrite bool

	// Clock supplies the time used by rewrites. Nil means time.Now.
	Clock func() time.Time
}

// Result describes a finished generation.
type Result struct {
	// ProjectDir is the generated project directory, joined with OutputDir.
	ProjectDir string `json:"projectDir"`

	// Context is the resolved render context.
	Context resolve.RenderContext `json:"-"`

	// Answers are the primary values the project was generated with.
	Answers map[string]string `json:"answers"`

	// Rendered describes the tree before post-processing.
	Rendered *templates.RenderResult `json:"rendered"`

	// Post describes what the post-generation hook removed and rewrote.
	Post *hooks.PostResult `json:"post"`

	// Files lists the files of the finished project, sorted.
	Files []string `json:"files"`
}

// Generate runs the full generation for tmpl.
//
// Stage sequence:
//  1. RESOLVE:  prompt for missing answers, then resolve.Resolve
//  2. PREHOOK:  hooks.PreHook gates the context; nothing is written before it passes
//  3. RENDER:   templates.Renderer writes the tree; it cleans up after itself on failure
//  4. POSTHOOK: hooks.PostHook prunes and rewrites; on failure everything the render created is removed
//
// Every error is a *StageError.
func Generate(ctx context.Context, tmpl *templates.Template, opts Options) (*Result, error) {
	rc, err := resolveContext(tmpl, opts)
	if err != nil {
		return nil, &StageError{Stage: StageResolve, Err: err}
	}
	output.Debug("context resolved", "template", tmpl.Name, "keys", rc.Len())

	if err := hooks.NewPreHook(tmpl.Hooks).Run(rc); err != nil {
		return nil, &StageError{Stage: StagePreHook, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}

	base, err := outputFilesystem(opts)
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}

	renderer := templates.NewRenderer(tmpl.Schema)
	projectDir, err := renderer.ProjectName(tmpl.Root, rc)
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}
	existed, err := checkTarget(base, projectDir, opts)
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}

	rendered, err := renderer.Render(ctx, tmpl.Root, rc, base)
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}
	output.Debug("tree rendered", "dir", projectDir, "files", len(rendered.Files), "dirs", len(rendered.Dirs))

	discard := func() {
		if err := rendered.Remove(base); err != nil {
			output.Warn("could not remove generated files", "dir", projectDir, "err", err)
		}
		if existed {
			output.Debug("pre-existing project directory left in place", "dir", projectDir)
		}
	}

	tree, err := base.Chroot(projectDir)
	if err != nil {
		discard()
		return nil, &StageError{Stage: StagePostHook, Err: err}
	}
	now := time.Now
	if opts.Clock != nil {
		now = opts.Clock
	}
	post, err := hooks.NewPostHook(tmpl.Hooks).Run(tree, rc, now())
	if err != nil {
		discard()
		return nil, &StageError{Stage: StagePostHook, Err: err}
	}
	output.Debug("post-generation hook finished", "removed", len(post.Removed), "rewritten", len(post.Rewritten))

	snap, err := treediff.Snapshot(base, projectDir)
	if err != nil {
		return nil, &StageError{Stage: StagePostHook, Err: err}
	}

	files := treediff.Files(snap)
	if files == nil {
		files = make([]string, 0)
	}
	return &Result{
		ProjectDir: joinOutput(opts.OutputDir, projectDir),
		Context:    rc,
		Answers:    resolve.Answers(tmpl.Schema, rc),
		Rendered:   rendered,
		Post:       post,
		Files:      files,
	}, nil
}

func resolveContext(tmpl *templates.Template, opts Options) (resolve.RenderContext, error) {
	answers := opts.Answers
	if opts.Prompter != nil {
		var err error
		answers, err = resolve.Interview(tmpl.Schema, answers, opts.Prompter)
		if err != nil {
			return resolve.RenderContext{}, err
		}
	}
	return resolve.Resolve(tmpl.Schema, answers)
}

// outputFilesystem returns a filesystem rooted at the output directory,
// creating the directory when missing.
func outputFilesystem(opts Options) (billy.Filesystem, error) {
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}

	if opts.Filesystem == nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
		}
		return osfs.New(dir), nil
	}

	if dir == "." {
		return opts.Filesystem, nil
	}
	if err := opts.Filesystem.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return opts.Filesystem.Chroot(dir)
}

// checkTarget enforces the output contract and reports whether the project
// directory existed before the run.
func checkTarget(base billy.Filesystem, projectDir string, opts Options) (bool, error) {
	info, err := base.Stat(projectDir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", projectDir, err)
	}

	location := joinOutput(opts.OutputDir, projectDir)
	if !info.IsDir() {
		return true, oerrors.NewValidationError("project path exists and is not a directory", location, "", "Remove it or choose another output directory.")
	}

	entries, err := base.ReadDir(projectDir)
	if err != nil {
		return true, fmt.Errorf("reading %s: %w", projectDir, err)
	}
	if len(entries) > 0 && !opts.Overwrite {
		return true, oerrors.NewValidationError("project directory already exists", location, "",
			"Use --overwrite to render into it, or choose another output directory.")
	}
	return true, nil
}

func joinOutput(outputDir, projectDir string) string {
	return filepath.Join(outputDir, projectDir)
}
