package docset

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/incremental"
	"github.com/dotnet/docfx-sub027/internal/moniker"
	"github.com/dotnet/docfx-sub027/internal/testutil"
)

const testDefinition = `{"monikers":[
  {"moniker_name":"net-5.0"},
  {"moniker_name":"net-6.0"},
  {"moniker_name":"net-7.0"}
]}`

const testConfig = `monikerDefinition: monikers.json
monikerRange:
  "**/*.md": ">= net-5.0"
groups:
  legacy:
    files: ["legacy/**"]
    monikerRange: net-5.0
`

func newTestDocset(t *testing.T) (string, *Docset, context.Context, *incremental.Watcher) {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFile(t, root, "docfx.yml", testConfig)
	testutil.WriteFile(t, root, "monikers.json", testDefinition)
	testutil.WriteFile(t, root, "a.md", "---\nmonikerRange: '>= net-6.0'\n---\n# A\n\n::: moniker range=\"net-7.0\"\nseven\n::: moniker-end\n")
	testutil.WriteFile(t, root, "b.md", "# B\n")
	testutil.WriteFile(t, root, "legacy/c.md", "# C\n")

	watcher := incremental.NewWatcher()
	ctx := incremental.WithWatcher(context.Background(), watcher)
	return root, New(filepath.Join(root, "docfx.yml")), ctx, watcher
}

func monikersByPath(r *Report) map[string]moniker.List {
	out := make(map[string]moniker.List, len(r.Files))
	for _, f := range r.Files {
		out[f.Path] = f.Monikers
	}
	return out
}

func TestResolve(t *testing.T) {
	_, ds, ctx, _ := newTestDocset(t)

	report, err := ds.Resolve(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Empty(t, report.Diagnostics)
	assert.Equal(t, 3, report.Recomputed)

	require.Len(t, report.Files, 3)
	assert.Equal(t, "a.md", report.Files[0].Path)
	assert.Equal(t, map[string]moniker.List{
		"a.md":        {"net-6.0", "net-7.0"},
		"b.md":        {"net-5.0", "net-6.0", "net-7.0"},
		"legacy/c.md": {"net-5.0"},
	}, monikersByPath(report))

	assert.Equal(t, []ZoneReport{{Range: "net-7.0", Line: 6, EndLine: 8, Monikers: moniker.List{"net-7.0"}}}, report.Files[0].Zones)
	assert.NotEmpty(t, report.Files[0].Fingerprint)
	assert.NotEqual(t, report.Files[0].Fingerprint, report.Files[1].Fingerprint)
}

func TestResolve_Incremental(t *testing.T) {
	root, ds, ctx, watcher := newTestDocset(t)

	_, err := ds.Resolve(ctx)
	require.NoError(t, err)

	report, err := ds.Resolve(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Recomputed, "same activity is served from cache")

	watcher.StartActivity()
	report, err = ds.Resolve(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Recomputed, "nothing changed")

	testutil.WriteFile(t, root, "b.md", "---\nmonikerRange: net-7.0\n---\n# B changed\n")
	watcher.StartActivity()
	report, err = ds.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recomputed)
	assert.Equal(t, moniker.List{"net-7.0"}, monikersByPath(report)["b.md"])

	testutil.WriteFile(t, root, "docfx.yml", `monikerDefinition: monikers.json
monikerRange:
  "**/*.md": "net-6.0 || net-7.0"
`)
	watcher.StartActivity()
	report, err = ds.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Recomputed, "config change rebuilds every file")
	assert.Equal(t, moniker.List{"net-6.0", "net-7.0"}, monikersByPath(report)["legacy/c.md"])
}

func TestResolve_DefinitionChange(t *testing.T) {
	root, ds, ctx, watcher := newTestDocset(t)

	_, err := ds.Resolve(ctx)
	require.NoError(t, err)

	testutil.WriteFile(t, root, "monikers.json", `{"monikers":[
  {"moniker_name":"net-5.0"},
  {"moniker_name":"net-6.0"},
  {"moniker_name":"net-7.0"},
  {"moniker_name":"net-8.0"}
]}`)
	watcher.StartActivity()
	report, err := ds.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Recomputed)
	assert.Equal(t, moniker.List{"net-5.0", "net-6.0", "net-7.0", "net-8.0"}, monikersByPath(report)["b.md"])
}

func TestResolve_NewAndDeletedFiles(t *testing.T) {
	root, ds, ctx, watcher := newTestDocset(t)

	_, err := ds.Resolve(ctx)
	require.NoError(t, err)

	testutil.WriteFile(t, root, "d.md", "# D\n")
	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))
	watcher.StartActivity()

	report, err := ds.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recomputed)
	got := monikersByPath(report)
	assert.Contains(t, got, "d.md")
	assert.NotContains(t, got, "b.md")
}

func TestResolve_Diagnostics(t *testing.T) {
	root, ds, ctx, _ := newTestDocset(t)
	testutil.WriteFile(t, root, "legacy/c.md", "# C\n\n::: moniker range=\"net-7.0\"\nseven\n::: moniker-end\n\n::: moniker range=\"net-5.0\"\nopen\n")

	report, err := ds.Resolve(ctx)
	require.NoError(t, err)

	codes := make([]string, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.ElementsMatch(t, []string{errors.CodeMonikerZoneUnclosed, errors.CodeMonikerRangeOutOfScope}, codes)

	for _, f := range report.Files {
		if f.Path != "legacy/c.md" {
			continue
		}
		require.Len(t, f.Zones, 2)
		assert.Empty(t, f.Zones[0].Monikers)
		assert.Equal(t, moniker.List{"net-5.0"}, f.Zones[1].Monikers)
	}
}

func TestResolve_ConfigErrors(t *testing.T) {
	root, ds, ctx, watcher := newTestDocset(t)

	testutil.WriteFile(t, root, "docfx.yml", "unknownKey: true\n")
	_, err := ds.Resolve(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))

	testutil.WriteFile(t, root, "docfx.yml", testConfig)
	require.NoError(t, os.Remove(filepath.Join(root, "monikers.json")))
	watcher.StartActivity()
	_, err = ds.Resolve(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMoniker))

	testutil.WriteFile(t, root, "monikers.json", testDefinition)
	watcher.StartActivity()
	_, err = ds.Resolve(ctx)
	require.NoError(t, err, "recovers once inputs are fixed")
}

func TestResolve_RemoteDefinition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"1"`)
		_, _ = w.Write([]byte(testDefinition))
	}))
	defer srv.Close()

	root := t.TempDir()
	testutil.WriteFile(t, root, "docfx.yml", "monikerDefinition: "+srv.URL+"/monikers.json\nmonikerRange:\n  \"**\": net-6.0\n")
	testutil.WriteFile(t, root, "a.md", "# A\n")

	ds := New(filepath.Join(root, "docfx.yml"))
	report, err := ds.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, moniker.List{"net-6.0"}, report.Files[0].Monikers)
}

func TestResolveFile(t *testing.T) {
	root, ds, ctx, _ := newTestDocset(t)

	f, diags, err := ds.ResolveFile(ctx, "./a.md")
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, moniker.List{"net-6.0", "net-7.0"}, f.Monikers)
	require.Len(t, f.Zones, 1)

	f, _, err = ds.ResolveFile(ctx, filepath.Join(root, "legacy", "c.md"))
	require.NoError(t, err)
	assert.Equal(t, "legacy/c.md", f.Path)

	_, _, err = ds.ResolveFile(ctx, "missing.md")
	require.Error(t, err)
}

func TestBuildScope(t *testing.T) {
	cfg, err := config.Parse([]byte(`groups:
  preview:
    files: ["docs/**"]
    exclude: ["docs/stable/**"]
    monikerRange: net-7.0
  docs:
    files: ["docs/**"]
    monikerRange: net-6.0
`))
	require.NoError(t, err)

	scope, err := NewBuildScope(cfg.Groups, "docfx.yml")
	require.NoError(t, err)

	m, ok := scope.MapPath("docs/a.md")
	require.True(t, ok)
	assert.Equal(t, "preview", m.Group)
	assert.Equal(t, 2, m.Source.Line)

	m, ok = scope.MapPath("docs/stable/a.md")
	require.True(t, ok)
	assert.Equal(t, "docs", m.Group)
	assert.Equal(t, "net-6.0", m.MonikerRange)

	_, ok = scope.MapPath("api/a.md")
	assert.False(t, ok)
}

func TestResolve_LogsCarryBuildContext(t *testing.T) {
	root, _, ctx, watcher := newTestDocset(t)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ds := New(filepath.Join(root, "docfx.yml"), WithLogger(logger))

	watcher.StartActivity()
	report, err := ds.Resolve(ctx)
	require.NoError(t, err)

	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if strings.Contains(line, `msg="Resolved file"`) || strings.Contains(line, `msg="Docset resolved"`) {
			assert.Contains(t, line, "build_id="+report.ID)
			assert.Contains(t, line, "activity=1")
		}
	}
	assert.Equal(t, 3, strings.Count(logs.String(), `msg="Resolved file"`))
}
