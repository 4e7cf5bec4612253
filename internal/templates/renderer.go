package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/opmodel/stamp/internal/engine"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/output"
	"github.com/opmodel/stamp/internal/resolve"
	"github.com/opmodel/stamp/internal/schema"
)

// Renderer materializes template trees.
type Renderer struct {
	engine *engine.Engine
	schema *schema.Schema
}

// NewRenderer returns a renderer for templates declared by s. The schema's
// copy-without-render patterns select files written verbatim.
func NewRenderer(s *schema.Schema) *Renderer {
	return &Renderer{engine: engine.New(), schema: s}
}

// ProjectName renders the name of the project directory.
func (r *Renderer) ProjectName(root *TemplateNode, rc resolve.RenderContext) (string, error) {
	return r.segment(root, rc.Values())
}

// Render writes root into out, which is the directory the project directory
// is created in. Nodes are written depth first, parents before children. Path
// segments and text file contents are rendered against rc; binary files and
// copy-without-render matches are copied byte for byte.
//
// On any failure, including cancellation of ctx, every file and directory
// this call created is removed in reverse order before the error is returned.
func (r *Renderer) Render(ctx context.Context, root *TemplateNode, rc resolve.RenderContext, out billy.Filesystem) (*RenderResult, error) {
	run := &renderRun{
		Renderer: r,
		ctx:      ctx,
		data:     rc.Values(),
		out:      out,
		written:  make(map[string]string),
	}

	projectDir, err := r.segment(root, run.data)
	if err != nil {
		return nil, err
	}
	run.result = &RenderResult{ProjectDir: projectDir}

	if err := run.dir(root, projectDir); err != nil {
		if cerr := run.cleanup(); cerr != nil {
			output.Warn("cleanup after failed render was incomplete", "dir", projectDir, "err", cerr)
		}
		return nil, err
	}
	run.result.created = run.created
	return run.result, nil
}

// Remove deletes every file and directory the render created from out,
// newest first. Paths that existed before the render are left in place.
func (r *RenderResult) Remove(out billy.Filesystem) error {
	return removeCreated(out, r.created)
}

// renderRun holds the state of one Render call.
type renderRun struct {
	*Renderer
	ctx     context.Context
	data    map[string]string
	out     billy.Filesystem
	result  *RenderResult
	created []string

	// written maps rendered paths to the template path that produced them.
	written map[string]string
}

func (run *renderRun) dir(node *TemplateNode, target string) error {
	if err := run.ctx.Err(); err != nil {
		return err
	}

	info, err := run.out.Stat(target)
	switch {
	case err == nil && !info.IsDir():
		return oerrors.NewValidationError("a file is in the way of a generated directory", target, "", "")
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		if err := run.out.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		run.created = append(run.created, target)
		run.result.Dirs = append(run.result.Dirs, run.rel(target))
	default:
		return fmt.Errorf("stat %s: %w", target, err)
	}

	for _, child := range node.Children {
		name, err := run.segment(child, run.data)
		if err != nil {
			return err
		}
		childTarget := path.Join(target, name)
		if prev, dup := run.written[childTarget]; dup {
			return oerrors.NewValidationError(
				fmt.Sprintf("%q and %q render to the same path", prev, child.Path), childTarget, "", "")
		}
		run.written[childTarget] = child.Path

		if child.Dir {
			err = run.dir(child, childTarget)
		} else {
			err = run.file(child, childTarget)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (run *renderRun) file(node *TemplateNode, target string) error {
	if err := run.ctx.Err(); err != nil {
		return err
	}

	content := node.Content
	if !node.Binary && !run.copyVerbatim(target) {
		rendered, err := run.engine.Render(node.Path, string(node.Content), run.data)
		if err != nil {
			return err
		}
		content = []byte(rendered)
	}

	_, statErr := run.out.Stat(target)
	existed := statErr == nil

	mode := fileMode(node.Mode)
	f, err := run.out.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if !existed {
		run.created = append(run.created, target)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}

	if ch, ok := run.out.(billy.Change); ok && existed {
		if err := ch.Chmod(target, mode); err != nil {
			return fmt.Errorf("chmod %s: %w", target, err)
		}
	}

	run.result.Files = append(run.result.Files, run.rel(target))
	return nil
}

// copyVerbatim matches the rendered path relative to the project directory,
// the same path the generated tree is checked against.
func (run *renderRun) copyVerbatim(target string) bool {
	return run.schema != nil && run.schema.MatchesCopyWithoutRender(run.rel(target))
}

// rel strips the project directory from a rendered path.
func (run *renderRun) rel(target string) string {
	if target == run.result.ProjectDir {
		return "."
	}
	return strings.TrimPrefix(target, run.result.ProjectDir+"/")
}

// cleanup removes created paths in reverse creation order.
func (run *renderRun) cleanup() error {
	return removeCreated(run.out, run.created)
}

func removeCreated(out billy.Filesystem, created []string) error {
	var errs []error
	for i := len(created) - 1; i >= 0; i-- {
		if err := util.RemoveAll(out, created[i]); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", created[i], err))
		}
	}
	return errors.Join(errs...)
}

// segment renders a node name into a single path element.
func (r *Renderer) segment(node *TemplateNode, data map[string]string) (string, error) {
	location := node.Path
	if location == "" {
		location = node.Name
	}

	name, err := r.engine.Render(location, node.Name, data)
	if err != nil {
		return "", err
	}

	switch {
	case strings.TrimSpace(name) == "":
		return "", oerrors.NewValidationError(fmt.Sprintf("%q renders to an empty name", node.Name), location, "", "")
	case name == "." || name == "..":
		return "", oerrors.NewValidationError(fmt.Sprintf("%q renders to %q", node.Name, name), location, "", "")
	case strings.ContainsAny(name, `/\`):
		return "", oerrors.NewValidationError(fmt.Sprintf("%q renders to %q, which contains a path separator", node.Name, name), location, "", "")
	}
	return name, nil
}

// fileMode keeps the executable bit of a template file and normalizes the rest,
// so read-only sources (such as embedded files) produce writable output.
func fileMode(m fs.FileMode) fs.FileMode {
	if m&0o111 != 0 {
		return 0o755
	}
	return 0o644
}
