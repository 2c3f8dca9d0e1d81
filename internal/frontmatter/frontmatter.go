package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a markdown file split into YAML frontmatter and body.
type Document struct {
	Frontmatter    []byte
	Body           []byte
	HasFrontmatter bool

	// BodyLine is the 1-based line of the file where Body starts.
	BodyLine int
	Newline  string
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter,
// HasFrontmatter is false and Body is the full input.
func Split(content []byte) (Document, error) {
	nl := detectNewline(content)
	doc := Document{Body: content, BodyLine: 1, Newline: nl}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return doc, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		doc.Frontmatter = []byte{}
		doc.Body = content[start+len(open):]
		doc.HasFrontmatter = true
		doc.BodyLine = 3
		return doc, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return doc, ErrMissingClosingDelimiter
	}

	doc.Frontmatter = content[start : start+idx+len(nl)]
	doc.Body = content[start+idx+len(closeSeq):]
	doc.HasFrontmatter = true
	// Opening delimiter, frontmatter lines, closing delimiter.
	doc.BodyLine = 1 + bytes.Count(doc.Frontmatter, []byte("\n")) + 2
	return doc, nil
}

// Fields parses the frontmatter into a YAML mapping node. Node line numbers
// are file lines, not frontmatter lines. A document without frontmatter
// yields an empty mapping.
func (d Document) Fields() (*yaml.Node, error) {
	empty := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: 1, Column: 1}
	if len(bytes.TrimSpace(d.Frontmatter)) == 0 {
		return empty, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(d.Frontmatter, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return empty, nil
	}
	fields := root.Content[0]
	if fields.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter must be a mapping, got %s", kindName(fields.Kind))
	}
	shiftLines(fields, 1)
	return fields, nil
}

// Lookup returns the value node for key in a mapping node, or nil.
func Lookup(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func shiftLines(n *yaml.Node, by int) {
	n.Line += by
	for _, c := range n.Content {
		shiftLines(c, by)
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

func detectNewline(content []byte) string {
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			if i > 0 && content[i-1] == '\r' {
				return "\r\n"
			}
			return "\n"
		}
	}
	return "\n"
}
