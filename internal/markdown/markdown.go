package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dotnet/docfx-sub027/internal/errors"
)

// Options controls how Markdown is parsed for analysis.
type Options struct {
	// File is used in diagnostic source locations.
	File string

	// FirstLine is the file line of the body's first line, so zones in a
	// document with frontmatter report file lines. Zero means 1.
	FirstLine int
}

// Zone is a moniker zone: a region of a document that applies only to the
// monikers selected by Range.
type Zone struct {
	Range   string
	Line    int
	EndLine int
}

// Source returns the location of the zone's opening marker.
func (z Zone) Source(file string) *errors.SourceInfo {
	return &errors.SourceInfo{File: file, Line: z.Line, Column: 1}
}

func newParser() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(MonikerZones))
}

// ParseBody parses a Markdown body (frontmatter already removed) into a
// Goldmark AST with zone markers as ZoneMarker nodes.
func ParseBody(body []byte, _ Options) (gmast.Node, error) {
	return newParser().Parser().Parse(text.NewReader(body)), nil
}

// ExtractMonikerZones returns the zones of body in document order. Nested
// zones, unmatched end markers and zones left open at the end of the body are
// reported; a nested start marker is ignored and the enclosing zone kept.
func ExtractMonikerZones(body []byte, opts Options) ([]Zone, []*errors.Diagnostic) {
	root, _ := ParseBody(body, opts)

	first := opts.FirstLine
	if first <= 0 {
		first = 1
	}
	lineOf := func(offset int) int {
		return first + bytes.Count(body[:offset], []byte("\n"))
	}
	source := func(line int) *errors.SourceInfo {
		return &errors.SourceInfo{File: opts.File, Line: line, Column: 1}
	}

	var (
		zones []Zone
		diags []*errors.Diagnostic
		open  *Zone
	)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		marker, ok := n.(*ZoneMarker)
		if !ok || !entering {
			return gmast.WalkContinue, nil
		}
		line := lineOf(marker.Offset)
		switch {
		case marker.End && open == nil:
			diags = append(diags, errors.MonikerZoneUnopened(source(line)))
		case marker.End:
			open.EndLine = line
			zones = append(zones, *open)
			open = nil
		case open != nil:
			diags = append(diags, errors.MonikerZoneNested(source(line)))
		default:
			open = &Zone{Range: marker.Range, Line: line}
		}
		return gmast.WalkSkipChildren, nil
	})

	if open != nil {
		diags = append(diags, errors.MonikerZoneUnclosed(source(open.Line)))
		open.EndLine = lineOf(len(body))
		zones = append(zones, *open)
	}
	return zones, diags
}
