package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/resolve"
	"github.com/opmodel/stamp/internal/templates"
	"github.com/opmodel/stamp/internal/testutil"
)

func openTemplate(t *testing.T, files map[string]string) *templates.Template {
	t.Helper()
	tmpl, err := templates.Open(testutil.Template(t, files))
	require.NoError(t, err)
	return tmpl
}

func exists(fs billy.Filesystem, p string) bool {
	_, err := fs.Stat(p)
	return err == nil
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

func TestGenerate_LayoutScenario(t *testing.T) {
	tmpl := openTemplate(t, testutil.LayoutTemplate)

	tests := []struct {
		name    string
		answers map[string]string
		files   []string
		absent  []string
	}{
		{
			name:    "src layout with dockerfile",
			answers: map[string]string{"layout": "src", "dockerfile": "y"},
			files:   []string{"Dockerfile", "README.md", "src/demo/__init__.py"},
			absent:  []string{"out/demo/demo"},
		},
		{
			name:    "flat layout without dockerfile",
			answers: map[string]string{"layout": "flat", "dockerfile": "n"},
			files:   []string{"README.md", "demo/__init__.py"},
			absent:  []string{"out/demo/src", "out/demo/Dockerfile"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			res, err := Generate(context.Background(), tmpl, Options{
				OutputDir:  "out",
				Filesystem: fs,
				Answers:    tt.answers,
			})
			require.NoError(t, err)

			assert.Equal(t, filepath.Join("out", "demo"), res.ProjectDir)
			assert.Equal(t, tt.files, res.Files)
			for _, p := range tt.absent {
				assert.False(t, exists(fs, p), p)
			}
			assert.Equal(t, tt.answers["layout"], res.Answers["layout"])
		})
	}
}

func TestGenerate_EarlyFailuresWriteNothing(t *testing.T) {
	tmpl := openTemplate(t, testutil.LayoutTemplate)

	tests := []struct {
		name     string
		answers  map[string]string
		stage    Stage
		sentinel error
	}{
		{"invalid choice", map[string]string{"dockerfile": "maybe"}, StageResolve, oerrors.ErrInvalidChoice},
		{"unknown key", map[string]string{"nope": "x"}, StageResolve, oerrors.ErrValidation},
		{"prehook rejects slug", map[string]string{"project_slug": "Bad-Name"}, StagePreHook, oerrors.ErrInvalidContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			_, err := Generate(context.Background(), tmpl, Options{OutputDir: "out", Filesystem: fs, Answers: tt.answers})
			require.Error(t, err)
			assert.Equal(t, tt.stage, StageOf(err))
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.True(t, isEmpty(t, fs), "nothing may be written")
		})
	}
}

func TestGenerate_ExistingProjectDir(t *testing.T) {
	tmpl := openTemplate(t, testutil.LayoutTemplate)
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("out/demo", 0o755))
	require.NoError(t, util.WriteFile(fs, "out/demo/notes.txt", []byte("mine"), 0o644))

	_, err := Generate(context.Background(), tmpl, Options{OutputDir: "out", Filesystem: fs})
	require.Error(t, err)
	assert.Equal(t, StageRender, StageOf(err))
	assert.True(t, errors.Is(err, oerrors.ErrValidation))
	assert.False(t, exists(fs, "out/demo/README.md"))

	res, err := Generate(context.Background(), tmpl, Options{OutputDir: "out", Filesystem: fs, Overwrite: true})
	require.NoError(t, err)
	assert.Contains(t, res.Files, "README.md")
	assert.Contains(t, res.Files, "notes.txt")
}

func TestGenerate_PostHookFailureRemovesProject(t *testing.T) {
	tmpl := openTemplate(t, map[string]string{
		"schema.yaml":           "name: demo\n",
		"hooks.yaml":            "rewrites:\n  - path: NOTES.md\n    old: x\n    new: y\n",
		"{{ .name }}/README.md": "# {{ .name }}\n",
	})

	fs := memfs.New()
	_, err := Generate(context.Background(), tmpl, Options{OutputDir: "out", Filesystem: fs})
	require.Error(t, err)
	assert.Equal(t, StagePostHook, StageOf(err))
	assert.True(t, errors.Is(err, oerrors.ErrPruneFailure))
	assert.False(t, exists(fs, "out/demo"))
}

func TestGenerate_PostHookFailureInExistingDir(t *testing.T) {
	tmpl := openTemplate(t, map[string]string{
		"schema.yaml":           "name: demo\n",
		"hooks.yaml":            "rewrites:\n  - path: NOTES.md\n    old: x\n    new: y\n",
		"{{ .name }}/README.md": "# {{ .name }}\n",
		"{{ .name }}/src/a.py":  "A = 1\n",
	})

	tests := []struct {
		name      string
		preexist  map[string]string
		overwrite bool
		remaining []string
	}{
		{name: "empty directory", remaining: nil},
		{name: "user files with overwrite", preexist: map[string]string{"out/demo/notes.txt": "mine"}, overwrite: true, remaining: []string{"notes.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			require.NoError(t, fs.MkdirAll("out/demo", 0o755))
			for p, content := range tt.preexist {
				require.NoError(t, util.WriteFile(fs, p, []byte(content), 0o644))
			}

			_, err := Generate(context.Background(), tmpl, Options{OutputDir: "out", Filesystem: fs, Overwrite: tt.overwrite})
			require.Error(t, err)
			assert.Equal(t, StagePostHook, StageOf(err))

			assert.True(t, exists(fs, "out/demo"), "pre-existing directory stays")
			entries, err := fs.ReadDir("out/demo")
			require.NoError(t, err)
			var names []string
			for _, e := range entries {
				names = append(names, e.Name())
			}
			assert.Equal(t, tt.remaining, names)
		})
	}
}

func TestGenerate_RewriteUsesClock(t *testing.T) {
	tmpl := openTemplate(t, map[string]string{
		"schema.yaml":         "name: demo\n",
		"hooks.yaml":          "rewrites:\n  - path: LICENSE\n    old: <year>\n    new: \"{{ ._year }}\"\n",
		"{{ .name }}/LICENSE": "Copyright <year> {{ .name }}\n",
	})

	fs := memfs.New()
	res, err := Generate(context.Background(), tmpl, Options{
		OutputDir:  "out",
		Filesystem: fs,
		Clock:      func() time.Time { return time.Date(2031, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"LICENSE"}, res.Post.Rewritten)

	got, err := util.ReadFile(fs, "out/demo/LICENSE")
	require.NoError(t, err)
	assert.Equal(t, "Copyright 2031 demo\n", string(got))
}

type scriptedPrompter struct {
	replies map[string][]string
	asked   []string
}

func (p *scriptedPrompter) Ask(pr resolve.Prompt) (string, error) {
	p.asked = append(p.asked, pr.Key)
	queue := p.replies[pr.Key]
	if len(queue) == 0 {
		return "", nil
	}
	reply := queue[0]
	p.replies[pr.Key] = queue[1:]
	return reply, nil
}

func TestGenerate_Prompter(t *testing.T) {
	tmpl := openTemplate(t, testutil.LayoutTemplate)
	prompter := &scriptedPrompter{replies: map[string][]string{
		"layout":     {"2"},
		"dockerfile": {"maybe", "y"},
	}}

	fs := memfs.New()
	res, err := Generate(context.Background(), tmpl, Options{
		OutputDir:  "out",
		Filesystem: fs,
		Answers:    map[string]string{"project_slug": "acme"},
		Prompter:   prompter,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"layout", "dockerfile", "dockerfile"}, prompter.asked)
	assert.Equal(t, "src", res.Answers["layout"])
	assert.Equal(t, "y", res.Answers["dockerfile"])
	assert.True(t, exists(fs, "out/acme/src/acme/__init__.py"))
	assert.True(t, exists(fs, "out/acme/Dockerfile"))
}

func TestGenerate_Disk(t *testing.T) {
	tmpl := openTemplate(t, testutil.BoolTemplate)
	out := filepath.Join(t.TempDir(), "nested", "out")

	res, err := Generate(context.Background(), tmpl, Options{
		OutputDir: out,
		Answers:   map[string]string{"docs": "n"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "app"), res.ProjectDir)
	assert.Equal(t, []string{"Dockerfile", "README.md", "ci.yml"}, res.Files)
}

func TestGenerate_Cancelled(t *testing.T) {
	tmpl := openTemplate(t, testutil.LayoutTemplate)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fs := memfs.New()
	_, err := Generate(ctx, tmpl, Options{OutputDir: "out", Filesystem: fs})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, isEmpty(t, fs))
}
