package markdown

import (
	"regexp"
	"strconv"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	zoneStartPattern = regexp.MustCompile(`(?i)^:::\s*moniker\s+range\s*=\s*(?:"([^"]*)"|'([^']*)')\s*$`)
	zoneEndPattern   = regexp.MustCompile(`(?i)^:::\s*moniker-end\s*$`)
)

// KindZoneMarker is the node kind of ZoneMarker.
var KindZoneMarker = gmast.NewNodeKind("ZoneMarker")

// ZoneMarker is a `::: moniker range="..."` or `::: moniker-end` line.
type ZoneMarker struct {
	gmast.BaseBlock

	Range string
	End   bool

	// Offset is the byte offset of the marker line in the parsed source.
	Offset int
}

func (n *ZoneMarker) Kind() gmast.NodeKind { return KindZoneMarker }

func (n *ZoneMarker) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{
		"Range": n.Range,
		"End":   strconv.FormatBool(n.End),
	}, nil)
}

type zoneParser struct{}

func (zoneParser) Trigger() []byte { return []byte{':'} }

func (zoneParser) Open(_ gmast.Node, reader text.Reader, pc parser.Context) (gmast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos > 3 {
		return nil, parser.NoChildren
	}
	marker := util.TrimRightSpace(line[pos:])

	node := &ZoneMarker{Offset: segment.Start}
	if m := zoneStartPattern.FindSubmatch(marker); m != nil {
		node.Range = string(m[1]) + string(m[2])
	} else if zoneEndPattern.Match(marker) {
		node.End = true
	} else {
		return nil, parser.NoChildren
	}
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (zoneParser) Continue(gmast.Node, text.Reader, parser.Context) parser.State {
	return parser.Close
}

func (zoneParser) Close(gmast.Node, text.Reader, parser.Context) {}

func (zoneParser) CanInterruptParagraph() bool { return true }

func (zoneParser) CanAcceptIndentedLine() bool { return false }

type zoneExtension struct{}

// MonikerZones is a goldmark extension recognizing moniker zone markers.
// Markers inside code blocks stay code.
var MonikerZones goldmark.Extender = zoneExtension{}

func (zoneExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(zoneParser{}, 550),
	))
}
