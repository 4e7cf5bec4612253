package templates

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/resolve"
	"github.com/opmodel/stamp/internal/testutil"
	"github.com/opmodel/stamp/internal/treediff"
)

func openFixture(t *testing.T, files map[string]string) *Template {
	t.Helper()
	tmpl, err := Open(testutil.Template(t, files))
	require.NoError(t, err)
	return tmpl
}

func resolveCtx(t *testing.T, tmpl *Template, answers map[string]string) resolve.RenderContext {
	t.Helper()
	rc, err := resolve.Resolve(tmpl.Schema, answers)
	require.NoError(t, err)
	return rc
}

func isEmpty(t *testing.T, fs billy.Filesystem) bool {
	t.Helper()
	entries, err := fs.ReadDir("/")
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	require.NoError(t, err)
	return len(entries) == 0
}

func TestOpen_Directory(t *testing.T) {
	tmpl := openFixture(t, testutil.LayoutTemplate)

	assert.Equal(t, []string{"project_slug", "layout", "dockerfile"}, tmpl.Schema.Keys())
	assert.Len(t, tmpl.Hooks.Rules, 3)
	assert.Equal(t, "{{ .project_slug }}", tmpl.Root.Name)

	files, dirs := tmpl.Root.Count()
	assert.Equal(t, 4, files)
	assert.Equal(t, 3, dirs)

	var paths []string
	require.NoError(t, tmpl.Root.Walk(func(n *TemplateNode) error {
		paths = append(paths, n.Path)
		return nil
	}))
	assert.Equal(t, []string{
		"",
		"Dockerfile",
		"README.md",
		"src",
		"src/{{ .project_slug }}",
		"src/{{ .project_slug }}/__init__.py",
		"{{ .project_slug }}",
		"{{ .project_slug }}/__init__.py",
	}, paths)
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		sentinel error
	}{
		{"no schema", testutil.With(testutil.LayoutTemplate, map[string]string{"schema.yaml": ""}), oerrors.ErrNotFound},
		{"no project dir", map[string]string{"schema.yaml": "a: b\n", "plain/README.md": "x"}, oerrors.ErrValidation},
		{"two project dirs", map[string]string{"schema.yaml": "a: b\n", "{{ .a }}/x": "x", "{{ .a }}-2/y": "y"}, oerrors.ErrValidation},
		{"bad hooks", testutil.With(testutil.LayoutTemplate, map[string]string{"hooks.yaml": "rules: [{name: r, when: {key: nope, equals: x}, remove: [a]}]\n"}), oerrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(testutil.Template(t, tt.files))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
		})
	}

	_, err := Open("/does/not/exist")
	assert.True(t, errors.Is(err, oerrors.ErrNotFound))
}

func TestRender(t *testing.T) {
	tmpl := openFixture(t, testutil.LayoutTemplate)
	out := memfs.New()

	res, err := NewRenderer(tmpl.Schema).Render(context.Background(), tmpl.Root,
		resolveCtx(t, tmpl, map[string]string{"project_slug": "acme", "layout": "src"}), out)
	require.NoError(t, err)

	assert.Equal(t, "acme", res.ProjectDir)
	assert.Equal(t, []string{"Dockerfile", "README.md", "src/acme/__init__.py", "acme/__init__.py"}, res.Files)
	assert.Equal(t, []string{".", "src", "src/acme", "acme"}, res.Dirs)

	readme, err := util.ReadFile(out, "acme/README.md")
	require.NoError(t, err)
	assert.Equal(t, "# acme\n\nLayout: src\n", string(readme))

	docker, err := util.ReadFile(out, "acme/Dockerfile")
	require.NoError(t, err)
	assert.Contains(t, string(docker), "COPY src/acme /app")
}

func TestRender_TwiceIsIdentical(t *testing.T) {
	tmpl := openFixture(t, testutil.LayoutTemplate)
	rc := resolveCtx(t, tmpl, nil)
	r := NewRenderer(tmpl.Schema)

	a, b := memfs.New(), memfs.New()
	_, err := r.Render(context.Background(), tmpl.Root, rc, a)
	require.NoError(t, err)
	_, err = r.Render(context.Background(), tmpl.Root, rc, b)
	require.NoError(t, err)

	diff, err := treediff.Compare(a, "demo", b, "demo", treediff.Options{})
	require.NoError(t, err)
	assert.True(t, diff.IsEmpty())
}

func TestRender_BinaryAndVerbatim(t *testing.T) {
	png := string([]byte{0x89, 'P', 'N', 'G', 0x00, '{', '{', ' ', '.', 'x'})
	tmpl := openFixture(t, map[string]string{
		"schema.yaml":          "name: demo\n_copy_without_render: [\"raw/*\"]\n",
		"{{ .name }}/logo.png": png,
		"{{ .name }}/raw/t.j2": "{{ .untouched }}",
		"{{ .name }}/x.txt":    "{{ .name }}",
	})

	out := memfs.New()
	_, err := NewRenderer(tmpl.Schema).Render(context.Background(), tmpl.Root, resolveCtx(t, tmpl, nil), out)
	require.NoError(t, err)

	got, err := util.ReadFile(out, "demo/logo.png")
	require.NoError(t, err)
	assert.Equal(t, png, string(got))

	got, err = util.ReadFile(out, "demo/raw/t.j2")
	require.NoError(t, err)
	assert.Equal(t, "{{ .untouched }}", string(got))

	got, err = util.ReadFile(out, "demo/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "demo", string(got))
}

func TestRender_VerbatimMatchesRenderedPath(t *testing.T) {
	files := map[string]string{
		"schema.yaml":                      "name: app\n_copy_without_render: [\"app/raw/*\"]\n",
		"{{ .name }}/{{ .name }}/raw/x.j2": "{{ .jinja_var }}",
		"{{ .name }}/{{ .name }}/main.py":  "NAME = \"{{ .name }}\"\n",
	}
	tmpl := openFixture(t, files)

	out := memfs.New()
	_, err := NewRenderer(tmpl.Schema).Render(context.Background(), tmpl.Root, resolveCtx(t, tmpl, nil), out)
	require.NoError(t, err)

	got, err := util.ReadFile(out, "app/app/raw/x.j2")
	require.NoError(t, err)
	assert.Equal(t, "{{ .jinja_var }}", string(got))

	got, err = util.ReadFile(out, "app/app/main.py")
	require.NoError(t, err)
	assert.Equal(t, "NAME = \"app\"\n", string(got))

	assert.NoError(t, tmpl.Lint())
}

func TestRender_FailureCleansUp(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		answers  map[string]string
		sentinel error
	}{
		{
			name: "unresolved variable in content",
			files: map[string]string{
				"schema.yaml":         "name: demo\n",
				"{{ .name }}/a.txt":   "ok",
				"{{ .name }}/b/c.txt": "ok",
				"{{ .name }}/z.txt":   "{{ .missing }}",
			},
			sentinel: oerrors.ErrUnresolvedVariable,
		},
		{
			name: "segment renders empty",
			files: map[string]string{
				"schema.yaml":              "name: demo\nsub: \"\"\n",
				"{{ .name }}/a.txt":        "ok",
				"{{ .name }}/{{ .sub }}/x": "x",
			},
			sentinel: oerrors.ErrValidation,
		},
		{
			name: "segment contains separator",
			files: map[string]string{
				"schema.yaml":            "name: demo\nsub: a/b\n",
				"{{ .name }}/{{ .sub }}": "x",
			},
			sentinel: oerrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Open(testutil.Template(t, tt.files))
			require.NoError(t, err)

			out := memfs.New()
			_, err = NewRenderer(tmpl.Schema).Render(context.Background(), tmpl.Root, resolveCtx(t, tmpl, tt.answers), out)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.True(t, isEmpty(t, out), "failed render must leave nothing behind")
		})
	}
}

func TestRender_Cancelled(t *testing.T) {
	tmpl := openFixture(t, testutil.LayoutTemplate)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := memfs.New()
	_, err := NewRenderer(tmpl.Schema).Render(ctx, tmpl.Root, resolveCtx(t, tmpl, nil), out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, isEmpty(t, out))
}

func TestRender_KeepsPreexistingFiles(t *testing.T) {
	tmpl := openFixture(t, map[string]string{
		"schema.yaml":       "name: demo\n",
		"{{ .name }}/a.txt": "new",
		"{{ .name }}/z.txt": "{{ .missing }}",
	})

	out := memfs.New()
	require.NoError(t, out.MkdirAll("demo", 0o755))
	require.NoError(t, util.WriteFile(out, "demo/keep.txt", []byte("mine"), 0o644))

	_, err := NewRenderer(tmpl.Schema).Render(context.Background(), tmpl.Root, resolveCtx(t, tmpl, nil), out)
	require.Error(t, err)

	_, err = out.Stat("demo/keep.txt")
	assert.NoError(t, err)
	_, err = out.Stat("demo/a.txt")
	assert.Error(t, err)
}

func TestRenderResult_Remove(t *testing.T) {
	tmpl := openFixture(t, map[string]string{
		"schema.yaml":         "name: demo\n",
		"{{ .name }}/a.txt":   "a",
		"{{ .name }}/b/c.txt": "c",
	})

	out := memfs.New()
	require.NoError(t, out.MkdirAll("demo", 0o755))
	require.NoError(t, util.WriteFile(out, "demo/keep.txt", []byte("mine"), 0o644))

	res, err := NewRenderer(tmpl.Schema).Render(context.Background(), tmpl.Root, resolveCtx(t, tmpl, nil), out)
	require.NoError(t, err)
	require.NoError(t, res.Remove(out))

	entries, err := out.ReadDir("demo")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.txt", entries[0].Name())
}

func TestBuiltinPython(t *testing.T) {
	for _, ref := range []string{"builtin:python", "python"} {
		tmpl, err := Open(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "python", tmpl.Name)
		assert.NotEmpty(t, tmpl.Description)
		assert.NoError(t, tmpl.Lint())
	}

	_, err := Open("builtin:nope")
	assert.True(t, errors.Is(err, oerrors.ErrNotFound))
}

func TestLint(t *testing.T) {
	tmpl := openFixture(t, map[string]string{
		"schema.yaml":             "name: demo\n",
		"{{ .name }}/{{ .typo }}": "x",
		"{{ .name }}/b.txt":       "{{ .other }}",
	})

	err := tmpl.Lint()
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrUnresolvedVariable))
	assert.Contains(t, err.Error(), "typo")
	assert.Contains(t, err.Error(), "other")
}
