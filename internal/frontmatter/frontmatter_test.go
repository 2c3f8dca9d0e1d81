package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	doc, err := Split(input)
	require.NoError(t, err)
	require.False(t, doc.HasFrontmatter)
	require.Empty(t, doc.Frontmatter)
	require.Equal(t, input, doc.Body)
	require.Equal(t, 1, doc.BodyLine)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nmonikerRange: net-6.0\ntitle: x\n---\n# Title\n")

	doc, err := Split(input)
	require.NoError(t, err)
	require.True(t, doc.HasFrontmatter)
	require.Equal(t, []byte("monikerRange: net-6.0\ntitle: x\n"), doc.Frontmatter)
	require.Equal(t, []byte("# Title\n"), doc.Body)
	require.Equal(t, 5, doc.BodyLine)
}

func TestSplit_EmptyFrontmatter(t *testing.T) {
	doc, err := Split([]byte("---\n---\nbody\n"))
	require.NoError(t, err)
	require.True(t, doc.HasFrontmatter)
	require.Equal(t, []byte("body\n"), doc.Body)
	require.Equal(t, 3, doc.BodyLine)

	fields, err := doc.Fields()
	require.NoError(t, err)
	require.Equal(t, yaml.MappingNode, fields.Kind)
	require.Empty(t, fields.Content)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	doc, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.False(t, doc.HasFrontmatter)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	doc, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, doc.HasFrontmatter)
	require.Equal(t, "\r\n", doc.Newline)
	require.Equal(t, []byte("key: value\r\n"), doc.Frontmatter)
	require.Equal(t, []byte("# Title\r\n"), doc.Body)
	require.Equal(t, 4, doc.BodyLine)
}

func TestFields_LinesAreFileLines(t *testing.T) {
	doc, err := Split([]byte("---\ntitle: x\nmonikerRange: '>= net-6.0'\nmonikers:\n  - net-5.0\n---\nbody\n"))
	require.NoError(t, err)

	fields, err := doc.Fields()
	require.NoError(t, err)

	r := Lookup(fields, "monikerRange")
	require.NotNil(t, r)
	require.Equal(t, ">= net-6.0", r.Value)
	require.Equal(t, 3, r.Line)
	require.Equal(t, 15, r.Column)

	list := Lookup(fields, "monikers")
	require.NotNil(t, list)
	require.Equal(t, yaml.SequenceNode, list.Kind)
	require.Equal(t, 5, list.Content[0].Line)

	require.Nil(t, Lookup(fields, "missing"))
	require.Nil(t, Lookup(nil, "title"))
}

func TestFields_RejectsNonMapping(t *testing.T) {
	doc, err := Split([]byte("---\n- a\n- b\n---\n"))
	require.NoError(t, err)
	_, err = doc.Fields()
	require.ErrorContains(t, err, "sequence")
}

func TestFields_InvalidYAML(t *testing.T) {
	doc, err := Split([]byte("---\nkey: [unclosed\n---\n"))
	require.NoError(t, err)
	_, err = doc.Fields()
	require.Error(t, err)
}
