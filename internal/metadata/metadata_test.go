package metadata

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/errors"
)

func testConfig(t *testing.T) config.FileMetadataConfig {
	t.Helper()
	cfg, err := config.Parse([]byte(`fileMetadata:
  monikerRange:
    "api/**": net-6.0
    "api/v7/**": net-7.0
  monikers:
    "samples/**": [net-5.0, net-6.0]
`))
	require.NoError(t, err)
	return cfg.FileMetadata
}

func TestGetMetadata_FromConfig(t *testing.T) {
	p, err := New(fstest.MapFS{}, testConfig(t), "docfx.yml")
	require.NoError(t, err)

	diags, meta := p.GetMetadata("api/v7/a.md")
	assert.Empty(t, diags)
	require.NotNil(t, meta)
	require.NotNil(t, meta.MonikerRange)
	assert.Equal(t, "net-7.0", meta.MonikerRange.Value, "last declared glob wins")
	assert.Equal(t, &errors.SourceInfo{File: "docfx.yml", Line: 4, Column: 18}, meta.MonikerRange.Source)

	_, meta = p.GetMetadata("./samples/x.md")
	require.NotNil(t, meta)
	assert.Nil(t, meta.MonikerRange)
	require.Len(t, meta.Monikers, 2)
	assert.Equal(t, "net-6.0", meta.Monikers[1].Value)

	diags, meta = p.GetMetadata("docs/none.md")
	assert.Empty(t, diags)
	assert.Nil(t, meta)
}

func TestGetMetadata_FrontmatterOverridesConfig(t *testing.T) {
	fsys := fstest.MapFS{
		"api/a.md":     {Data: []byte("---\ntitle: A\nmonikerRange: '>= net-7.0'\n---\n# A\n")},
		"samples/b.md": {Data: []byte("---\nmonikers:\n  - net-7.0\n---\n")},
		"api/c.yml":    {Data: []byte("---\nmonikerRange: ignored\n---\n")},
	}
	p, err := New(fsys, testConfig(t), "docfx.yml")
	require.NoError(t, err)

	_, meta := p.GetMetadata("api/a.md")
	require.NotNil(t, meta)
	assert.Equal(t, ">= net-7.0", meta.MonikerRange.Value)
	assert.Equal(t, &errors.SourceInfo{File: "api/a.md", Line: 3, Column: 15}, meta.MonikerRange.Source)

	_, meta = p.GetMetadata("samples/b.md")
	require.Len(t, meta.Monikers, 1)
	assert.Equal(t, "net-7.0", meta.Monikers[0].Value)
	assert.Equal(t, 3, meta.Monikers[0].Source.Line)

	_, meta = p.GetMetadata("api/c.yml")
	assert.Equal(t, "net-6.0", meta.MonikerRange.Value, "only markdown files carry frontmatter")
}

func TestGetMetadata_BothKeysInFrontmatter(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": {Data: []byte("---\nmonikerRange: net-6.0\nmonikers: net-7.0\n---\n")},
	}
	p, err := New(fsys, config.FileMetadataConfig{}, "docfx.yml")
	require.NoError(t, err)

	_, meta := p.GetMetadata("a.md")
	require.NotNil(t, meta)
	assert.Equal(t, "net-6.0", meta.MonikerRange.Value)
	require.Len(t, meta.Monikers, 1)
	assert.Equal(t, "net-7.0", meta.Monikers[0].Value)
}

func TestParse_Problems(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{"unclosed frontmatter", "---\nmonikerRange: a\n", 1},
		{"invalid yaml", "---\nmonikerRange: [a\n---\n", 2},
		{"range not a string", "---\nmonikerRange: [a]\n---\n", 2},
		{"list of maps", "---\nmonikers:\n  - name: a\n---\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags, meta := Parse("f.md", []byte(tt.content))
			require.Len(t, diags, 1)
			assert.Equal(t, errors.CodeInvalidFrontmatter, diags[0].Code)
			assert.Equal(t, tt.line, diags[0].Source.Line)
			assert.Nil(t, meta)
		})
	}
}

func TestParse_NullAndMissing(t *testing.T) {
	diags, meta := Parse("f.md", []byte("---\nmonikerRange: ~\ntitle: x\n---\n"))
	assert.Empty(t, diags)
	assert.Nil(t, meta)

	diags, meta = Parse("f.md", []byte("# no frontmatter\n"))
	assert.Empty(t, diags)
	assert.Nil(t, meta)
}

func TestNew_InvalidGlob(t *testing.T) {
	_, err := New(nil, config.FileMetadataConfig{
		MonikerRange: config.RangeRules{{Glob: "a/[", Range: "x"}},
	}, "docfx.yml")
	require.Error(t, err)
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("a/b.MD"))
	assert.True(t, IsMarkdown("x.markdown"))
	assert.False(t, IsMarkdown("toc.yml"))
}
