// Package metadata supplies per-file moniker metadata from two places: the
// YAML frontmatter of markdown files and the fileMetadata globs of the docset
// config. Frontmatter wins key by key.
package metadata

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/frontmatter"
	"github.com/dotnet/docfx-sub027/internal/glob"
	"github.com/dotnet/docfx-sub027/internal/logfields"
	"github.com/dotnet/docfx-sub027/internal/moniker"
)

// Frontmatter keys read by the provider.
const (
	KeyMonikerRange = "monikerRange"
	KeyMonikers     = "monikers"
)

type rangeRule struct {
	match glob.Matcher
	value moniker.SourceValue
}

type listRule struct {
	match  glob.Matcher
	values []moniker.SourceValue
}

// Provider implements moniker.MetadataProvider. It keeps no cache; the
// moniker provider caches per file.
type Provider struct {
	fsys   fs.FS
	ranges []rangeRule // reverse declaration order
	lists  []listRule  // reverse declaration order
	logger *slog.Logger
}

// New creates a provider reading files from fsys. configFile labels the
// source of config-supplied values in diagnostics.
func New(fsys fs.FS, cfg config.FileMetadataConfig, configFile string) (*Provider, error) {
	p := &Provider{fsys: fsys, logger: slog.Default()}

	for i := len(cfg.MonikerRange) - 1; i >= 0; i-- {
		r := cfg.MonikerRange[i]
		m, err := glob.Compile(r.Glob)
		if err != nil {
			return nil, err
		}
		p.ranges = append(p.ranges, rangeRule{match: m, value: moniker.SourceValue{
			Value:  r.Range,
			Source: &errors.SourceInfo{File: configFile, Line: r.Line, Column: r.Column},
		}})
	}

	for i := len(cfg.Monikers) - 1; i >= 0; i-- {
		r := cfg.Monikers[i]
		m, err := glob.Compile(r.Glob)
		if err != nil {
			return nil, err
		}
		values := make([]moniker.SourceValue, 0, len(r.Monikers))
		for _, name := range r.Monikers {
			values = append(values, moniker.SourceValue{
				Value:  name,
				Source: &errors.SourceInfo{File: configFile, Line: r.Line, Column: r.Column},
			})
		}
		p.lists = append(p.lists, listRule{match: m, values: values})
	}
	return p, nil
}

// WithLogger sets a custom logger.
func (p *Provider) WithLogger(logger *slog.Logger) *Provider {
	p.logger = logger
	return p
}

// GetMetadata returns the moniker metadata of file, or nil when neither the
// config nor the file declares any.
func (p *Provider) GetMetadata(file string) ([]*errors.Diagnostic, *moniker.FileMetadata) {
	file = glob.Normalize(file)

	meta := &moniker.FileMetadata{}
	for _, r := range p.ranges {
		if r.match(file) {
			v := r.value
			meta.MonikerRange = &v
			break
		}
	}
	for _, r := range p.lists {
		if r.match(file) {
			meta.Monikers = append([]moniker.SourceValue(nil), r.values...)
			break
		}
	}

	diags, own := p.readFrontmatter(file)
	if own != nil {
		if own.MonikerRange != nil {
			meta.MonikerRange = own.MonikerRange
		}
		if len(own.Monikers) > 0 {
			meta.Monikers = own.Monikers
		}
	}

	if meta.MonikerRange == nil && len(meta.Monikers) == 0 {
		return diags, nil
	}
	return diags, meta
}

func (p *Provider) readFrontmatter(file string) ([]*errors.Diagnostic, *moniker.FileMetadata) {
	if !IsMarkdown(file) || p.fsys == nil {
		return nil, nil
	}
	content, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		p.logger.Warn("Failed to read file metadata", logfields.File(file), logfields.Error(err))
		return []*errors.Diagnostic{errors.InvalidFrontmatter(err, &errors.SourceInfo{File: file})}, nil
	}
	return Parse(file, content)
}

// Parse extracts moniker metadata from a markdown document's frontmatter.
func Parse(file string, content []byte) ([]*errors.Diagnostic, *moniker.FileMetadata) {
	doc, err := frontmatter.Split(content)
	if err != nil {
		return []*errors.Diagnostic{errors.InvalidFrontmatter(err, &errors.SourceInfo{File: file, Line: 1, Column: 1})}, nil
	}
	if !doc.HasFrontmatter {
		return nil, nil
	}
	fields, err := doc.Fields()
	if err != nil {
		return []*errors.Diagnostic{errors.InvalidFrontmatter(err, &errors.SourceInfo{File: file, Line: 2, Column: 1})}, nil
	}
	return FromFields(file, fields)
}

// FromFields reads moniker metadata from a parsed frontmatter mapping.
// Values of the wrong shape are reported and ignored.
func FromFields(file string, fields *yaml.Node) ([]*errors.Diagnostic, *moniker.FileMetadata) {
	var diags []*errors.Diagnostic
	meta := &moniker.FileMetadata{}
	at := func(n *yaml.Node) *errors.SourceInfo {
		return &errors.SourceInfo{File: file, Line: n.Line, Column: n.Column}
	}

	if n := frontmatter.Lookup(fields, KeyMonikerRange); n != nil && !isNull(n) {
		if n.Kind == yaml.ScalarNode {
			meta.MonikerRange = &moniker.SourceValue{Value: n.Value, Source: at(n)}
		} else {
			diags = append(diags, errors.InvalidFrontmatter(
				fmt.Errorf("%s must be a string", KeyMonikerRange), at(n)))
		}
	}

	if n := frontmatter.Lookup(fields, KeyMonikers); n != nil && !isNull(n) {
		switch n.Kind {
		case yaml.ScalarNode:
			meta.Monikers = []moniker.SourceValue{{Value: n.Value, Source: at(n)}}
		case yaml.SequenceNode:
			for _, item := range n.Content {
				if item.Kind != yaml.ScalarNode {
					diags = append(diags, errors.InvalidFrontmatter(
						fmt.Errorf("%s entries must be strings", KeyMonikers), at(item)))
					continue
				}
				meta.Monikers = append(meta.Monikers, moniker.SourceValue{Value: item.Value, Source: at(item)})
			}
		default:
			diags = append(diags, errors.InvalidFrontmatter(
				fmt.Errorf("%s must be a string or a list", KeyMonikers), at(n)))
		}
	}

	if meta.MonikerRange == nil && len(meta.Monikers) == 0 {
		return diags, nil
	}
	return diags, meta
}

// IsMarkdown reports whether file carries frontmatter.
func IsMarkdown(file string) bool {
	switch strings.ToLower(path.Ext(file)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
