package harness

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/stamp/internal/combo"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/templates"
	"github.com/opmodel/stamp/internal/testutil"
)

var allYes = map[string]string{"docs": "y", "ci": "y", "docker": "y"}

func openTemplate(t *testing.T, files map[string]string) *templates.Template {
	t.Helper()
	tmpl, err := templates.Open(testutil.Template(t, files))
	require.NoError(t, err)
	return tmpl
}

func present(t *testing.T, fs billy.Filesystem, p string) bool {
	t.Helper()
	ok, err := exists(fs, p)
	require.NoError(t, err)
	return ok
}

func TestRun_ThreeBooleans(t *testing.T) {
	tmpl := openTemplate(t, testutil.BoolTemplate)
	fs := memfs.New()

	report, err := New(tmpl, Options{Root: "sweep", Filesystem: fs, Mode: combo.ModeFull, KeepAll: true}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.OK(), "%+v", report.Failures())
	assert.Equal(t, combo.ModeFull, report.Mode)
	assert.Equal(t, 8, report.Total)
	assert.Equal(t, 8, report.Passed)

	dirs := make(map[string]bool)
	for i, c := range report.Cases {
		assert.Equal(t, i, c.Case.Index)
		assert.Equal(t, combo.CaseName(i), c.Dir)
		assert.True(t, c.Kept)
		dirs[c.Dir] = true
		assert.True(t, present(t, fs, filepath.Join("sweep", c.Dir, "app", "README.md")))
	}
	assert.Len(t, dirs, 8)

	// Last dimension varies fastest: case 2 has docker=n.
	assert.Equal(t, "name=app docs=y ci=y docker=n", report.Cases[1].Case.Label())
	assert.False(t, present(t, fs, "sweep/case-0002/app/Dockerfile"))
	assert.True(t, present(t, fs, "sweep/case-0001/app/Dockerfile"))
}

func TestRun_FailingCaseIsReported(t *testing.T) {
	files := testutil.With(testutil.BoolTemplate, map[string]string{
		"hooks.yaml": testutil.BoolTemplate["hooks.yaml"] + `rewrites:
  - path: MISSING.md
    old: x
    new: y
    when:
      all:
        - {key: docs, equals: "n"}
        - {key: ci, equals: "n"}
        - {key: docker, equals: "n"}
`,
	})
	tmpl := openTemplate(t, files)
	fs := memfs.New()

	report, err := New(tmpl, Options{Root: "sweep", Filesystem: fs, Mode: combo.ModeFull, KeepFailed: true}).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, 8, report.Total)
	assert.Equal(t, 7, report.Passed)
	assert.Equal(t, 1, report.Failed)

	failed := report.Cases[7]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "posthook", failed.Stage)
	assert.Equal(t, "PruneFailure", failed.Kind)
	assert.True(t, errors.Is(failed.Err, oerrors.ErrPruneFailure))
	assert.True(t, failed.Kept)

	assert.True(t, present(t, fs, "sweep/case-0008"))
	for i := 0; i < 7; i++ {
		assert.False(t, present(t, fs, filepath.Join("sweep", combo.CaseName(i))), "passing case %d must be removed", i)
	}
}

func TestRun_Checks(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		violation string
	}{
		{
			name:      "residual marker",
			overrides: map[string]string{"{{ .name }}/README.md": "{{ \"{{ .name }}\" }}\n"},
			violation: "README.md:1: residual marker",
		},
		{
			name: "inactive rule target missing",
			overrides: map[string]string{"hooks.yaml": `rules:
  - name: no-changelog
    when: {key: docs, equals: "n"}
    remove: [CHANGELOG.md]
`},
			violation: "rule no-changelog is inactive but CHANGELOG.md is missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := openTemplate(t, testutil.With(testutil.BoolTemplate, tt.overrides))
			report, err := New(tmpl, Options{Root: "sweep", Filesystem: memfs.New(), Pins: allYes}).Run(context.Background())
			require.NoError(t, err)

			require.Equal(t, 1, report.Total)
			c := report.Cases[0]
			assert.Equal(t, StatusFailed, c.Status)
			assert.Equal(t, StageCheck, c.Stage)
			require.NotEmpty(t, c.Violations)
			assert.Contains(t, c.Violations[0], tt.violation)
		})
	}
}

func TestRun_CopyWithoutRenderSkipsMarkerCheck(t *testing.T) {
	files := testutil.With(testutil.BoolTemplate, map[string]string{
		"schema.yaml":              testutil.BoolTemplate["schema.yaml"] + "_copy_without_render: [\"*.j2\"]\n",
		"{{ .name }}/page.html.j2": "<h1>{{ .title }}</h1>\n",
	})
	tmpl := openTemplate(t, files)

	report, err := New(tmpl, Options{Root: "sweep", Filesystem: memfs.New(), Pins: allYes}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), "%+v", report.Failures())
}

func TestRun_CopyWithoutRenderUnderTemplatedDir(t *testing.T) {
	files := testutil.With(testutil.BoolTemplate, map[string]string{
		"schema.yaml":                      testutil.BoolTemplate["schema.yaml"] + "_copy_without_render: [\"app/raw/*\"]\n",
		"{{ .name }}/{{ .name }}/raw/x.j2": "{{ .jinja_var }}\n",
	})
	tmpl := openTemplate(t, files)
	fs := memfs.New()

	report, err := New(tmpl, Options{Root: "sweep", Filesystem: fs, Pins: allYes, KeepAll: true}).Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.OK(), "%+v", report.Failures())
	assert.True(t, present(t, fs, "sweep/case-0001/app/app/raw/x.j2"))
}

func TestRun_RuleConflictAbortsSweep(t *testing.T) {
	files := testutil.With(testutil.LayoutTemplate, map[string]string{"hooks.yaml": `rules:
  - name: flat-layout
    when: {key: layout, equals: flat}
    remove: [src]
  - name: no-dockerfile-package
    when: {key: dockerfile, equals: "n"}
    remove: ["src/{{ .project_slug }}"]
`})
	tmpl := openTemplate(t, files)
	fs := memfs.New()

	_, err := New(tmpl, Options{Root: "sweep", Filesystem: fs}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrRuleConflict), "got %v", err)
	assert.False(t, present(t, fs, "sweep"))
}

func TestRun_RuleConflictOutsidePairwisePlan(t *testing.T) {
	files := testutil.With(testutil.BoolTemplate, map[string]string{"hooks.yaml": `rules:
  - name: minimal
    when:
      all:
        - {key: docs, equals: "n"}
        - {key: ci, equals: "n"}
        - {key: docker, equals: "y"}
    remove: [docs]
  - name: no-docker-index
    when: {key: docker, equals: "n"}
    remove: [docs/index.md]
`})
	tmpl := openTemplate(t, files)
	h := New(tmpl, Options{Root: "sweep", Filesystem: memfs.New(), Mode: combo.ModePairwise})

	planned, _, err := h.Plan()
	require.NoError(t, err)
	for _, c := range planned {
		require.NotEqual(t, "name=app docs=n ci=n docker=y", c.Label())
	}

	_, err = h.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrRuleConflict), "got %v", err)

	checked, mode, err := h.CheckRules()
	assert.True(t, errors.Is(err, oerrors.ErrRuleConflict), "got %v", err)
	assert.Equal(t, combo.ModePairwise, mode)
	assert.Len(t, checked, 8)
}

func TestRun_AutoFallsBackToPairwise(t *testing.T) {
	tmpl := openTemplate(t, testutil.BoolTemplate)

	report, err := New(tmpl, Options{Root: "sweep", Filesystem: memfs.New(), MaxCases: 7}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, combo.ModeAuto, report.RequestedMode)
	assert.Equal(t, combo.ModePairwise, report.Mode)
	assert.LessOrEqual(t, report.Total, 7)
	assert.True(t, report.OK())

	_, err = New(tmpl, Options{Root: "sweep", Filesystem: memfs.New(), Mode: combo.ModeFull, MaxCases: 7}).Run(context.Background())
	assert.True(t, errors.Is(err, oerrors.ErrValidation))
}

func TestRun_Reproducible(t *testing.T) {
	files := testutil.With(testutil.BoolTemplate, map[string]string{
		"hooks.yaml":          testutil.BoolTemplate["hooks.yaml"] + "rewrites:\n  - path: LICENSE\n    old: <year>\n    new: \"{{ ._year }}\"\n",
		"{{ .name }}/LICENSE": "Copyright <year>\n",
	})
	tmpl := openTemplate(t, files)
	fs := memfs.New()

	report, err := New(tmpl, Options{
		Root:         "sweep",
		Filesystem:   fs,
		Pins:         allYes,
		Reproducible: true,
		KeepAll:      true,
		Clock:        func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) },
	}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), "%+v", report.Failures())
	assert.False(t, present(t, fs, "sweep/case-0001/"+reproDir))
}

func TestRun_Cancelled(t *testing.T) {
	tmpl := openTemplate(t, testutil.BoolTemplate)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(tmpl, Options{Root: "sweep", Filesystem: memfs.New()}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, report.Total)
	assert.Equal(t, 8, report.Incomplete)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.OK())
	for _, c := range report.Cases {
		assert.Equal(t, StatusIncomplete, c.Status)
	}
}

func TestRun_ParallelOnDisk(t *testing.T) {
	tmpl := openTemplate(t, testutil.BoolTemplate)
	root := t.TempDir()

	report, err := New(tmpl, Options{Root: root, Workers: 4}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, report.Passed)

	rows := report.Rows()
	require.Len(t, rows, 8)
	for i, r := range rows {
		assert.Equal(t, fmt.Sprintf("case-%04d", i+1), r.Case)
		assert.Equal(t, "pass", r.Status)
	}
	assert.DirExists(t, root)
	assert.NoDirExists(t, filepath.Join(root, "case-0001"))
}

func TestRun_SharedMemoryFilesystem(t *testing.T) {
	tmpl := openTemplate(t, testutil.BoolTemplate)

	for _, root := range []string{".", "sweep"} {
		t.Run(root, func(t *testing.T) {
			fs := memfs.New()
			report, err := New(tmpl, Options{
				Root:         root,
				Filesystem:   fs,
				Mode:         combo.ModeFull,
				Workers:      4,
				Reproducible: true,
				KeepAll:      true,
			}).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 8, report.Passed, "%+v", report.Failures())

			for _, c := range report.Cases {
				assert.True(t, present(t, fs, filepath.Join(root, c.Dir, "app", "README.md")), c.Dir)
			}
		})
	}
}

func TestRun_ExistingCaseDirectory(t *testing.T) {
	tmpl := openTemplate(t, testutil.BoolTemplate)

	tests := []struct {
		name      string
		overwrite bool
		passed    int
		kept      bool
	}{
		{name: "left alone", overwrite: false, passed: 7, kept: true},
		{name: "replaced with overwrite", overwrite: true, passed: 8, kept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			require.NoError(t, util.WriteFile(fs, "sweep/case-0001/important.txt", []byte("mine"), 0o644))
			require.NoError(t, fs.MkdirAll("sweep/case-0002", 0o755))

			report, err := New(tmpl, Options{
				Root:       "sweep",
				Filesystem: fs,
				Mode:       combo.ModeFull,
				Overwrite:  tt.overwrite,
			}).Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.passed, report.Passed)
			assert.Equal(t, tt.kept, present(t, fs, "sweep/case-0001/important.txt"))
			assert.Equal(t, StatusPassed, report.Cases[1].Status, "an empty case directory is reused")

			if !tt.overwrite {
				c := report.Cases[0]
				assert.Equal(t, StatusFailed, c.Status)
				assert.Equal(t, StageSetup, c.Stage)
				assert.Equal(t, "Validation", c.Kind)
				assert.False(t, present(t, fs, "sweep/case-0001/app"))
			}
		})
	}
}
