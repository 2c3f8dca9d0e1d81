package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotnet/docfx-sub027/internal/errors"
)

func diagCodes(diags []*errors.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestExtractMonikerZones(t *testing.T) {
	body := []byte(`# Title

::: moniker range=">= net-6.0"
Modern content.
::: moniker-end

Shared paragraph.
::: moniker range='net-5.0'

Legacy content.

::: moniker-end
`)

	zones, diags := ExtractMonikerZones(body, Options{File: "a.md"})
	require.Empty(t, diags)
	require.Equal(t, []Zone{
		{Range: ">= net-6.0", Line: 3, EndLine: 5},
		{Range: "net-5.0", Line: 8, EndLine: 12},
	}, zones)
}

func TestExtractMonikerZones_FirstLineOffset(t *testing.T) {
	body := []byte("::: moniker range=\"net-7.0\"\nx\n::: moniker-end\n")
	zones, _ := ExtractMonikerZones(body, Options{FirstLine: 5})
	require.Len(t, zones, 1)
	assert.Equal(t, 5, zones[0].Line)
	assert.Equal(t, 7, zones[0].EndLine)
	assert.Equal(t, &errors.SourceInfo{File: "a.md", Line: 5, Column: 1}, zones[0].Source("a.md"))
}

func TestExtractMonikerZones_IgnoresCode(t *testing.T) {
	body := []byte("```md\n::: moniker range=\"net-5.0\"\n::: moniker-end\n```\n\n    ::: moniker range=\"net-6.0\"\n")
	zones, diags := ExtractMonikerZones(body, Options{})
	assert.Empty(t, zones)
	assert.Empty(t, diags)
}

func TestExtractMonikerZones_CaseAndSpacing(t *testing.T) {
	body := []byte(":::Moniker  Range = \"net-5.0 || net-7.0\"  \n\n:::  MONIKER-END\n")
	zones, diags := ExtractMonikerZones(body, Options{})
	require.Empty(t, diags)
	require.Len(t, zones, 1)
	assert.Equal(t, "net-5.0 || net-7.0", zones[0].Range)
}

func TestExtractMonikerZones_Problems(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		codes []string
		zones []Zone
	}{
		{
			name:  "unclosed",
			body:  "::: moniker range=\"a\"\ntext\n",
			codes: []string{errors.CodeMonikerZoneUnclosed},
			zones: []Zone{{Range: "a", Line: 1, EndLine: 3}},
		},
		{
			name:  "nested",
			body:  "::: moniker range=\"a\"\n::: moniker range=\"b\"\n::: moniker-end\n",
			codes: []string{errors.CodeMonikerZoneNested},
			zones: []Zone{{Range: "a", Line: 1, EndLine: 3}},
		},
		{
			name:  "unopened",
			body:  "text\n\n::: moniker-end\n",
			codes: []string{errors.CodeMonikerZoneUnopened},
		},
		{
			name: "other containers are not zones",
			body: "::: note\ntext\n:::\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zones, diags := ExtractMonikerZones([]byte(tt.body), Options{File: "f.md"})
			assert.Equal(t, tt.zones, zones)
			if len(tt.codes) == 0 {
				assert.Empty(t, diags)
				return
			}
			assert.Equal(t, tt.codes, diagCodes(diags))
			assert.Equal(t, "f.md", diags[0].Source.File)
		})
	}
}
