package moniker

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/glob"
	"github.com/dotnet/docfx-sub027/internal/logfields"
	"github.com/dotnet/docfx-sub027/internal/metrics"
)

const defaultParseCacheSize = 1024

// SourceValue is a configuration or metadata string together with where it
// was declared.
type SourceValue struct {
	Value  string
	Source *errors.SourceInfo
}

// Rule maps a glob to a moniker range. Rules are declared in configuration
// order; the last declared matching rule wins.
type Rule struct {
	Glob   string
	Range  string
	Source *errors.SourceInfo
}

// PathMapping is the explicit group assignment of a file.
type PathMapping struct {
	Group        string
	MonikerRange string
	Source       *errors.SourceInfo
}

// BuildScope maps a file to its explicit group, if any.
type BuildScope interface {
	MapPath(path string) (PathMapping, bool)
}

// FileMetadata is the moniker-related part of a file's metadata. A nil
// MonikerRange means the file does not declare one.
type FileMetadata struct {
	MonikerRange *SourceValue
	Monikers     []SourceValue
}

// hasRange reports whether a non-blank monikerRange is set. A blank range
// carries no moniker semantics and counts as not declared.
func (m *FileMetadata) hasRange() bool {
	return m != nil && m.MonikerRange != nil && strings.TrimSpace(m.MonikerRange.Value) != ""
}

func (m *FileMetadata) declaresMonikers() bool {
	return m != nil && (m.hasRange() || len(m.Monikers) > 0)
}

// MetadataProvider returns the metadata of a file along with any problems
// found while reading it.
type MetadataProvider interface {
	GetMetadata(file string) ([]*errors.Diagnostic, *FileMetadata)
}

// Options configures a Provider.
type Options struct {
	Definition *Definition
	Rules      []Rule
	BuildScope BuildScope
	Metadata   MetadataProvider

	// CompileGlob defaults to glob.Compile.
	CompileGlob func(pattern string) (glob.Matcher, error)

	// ParseCacheSize bounds the parsed-expression cache; <= 0 uses a default.
	ParseCacheSize int

	Logger   *slog.Logger
	Recorder metrics.Recorder
}

type compiledRule struct {
	Rule
	match glob.Matcher
}

type parseResult struct {
	list List
	err  error
}

type fileResult struct {
	diags    []*errors.Diagnostic
	monikers List
}

// Provider resolves file-level and zone-level monikers. It is safe for
// concurrent use. Results are cached per file until Invalidate drops them;
// build a new Provider to pick up configuration or definition changes.
type Provider struct {
	def      *Definition
	cmp      Comparer
	parser   *RangeParser
	rules    []compiledRule // reverse declaration order
	scope    BuildScope
	metadata MetadataProvider
	logger   *slog.Logger
	recorder metrics.Recorder

	parseCache *lru.Cache[string, parseResult]

	mu          sync.RWMutex
	configRange map[string]SourceValue
	fileLevel   map[string]fileResult
}

// NewProvider compiles the configured rules. It fails only on malformed
// configuration such as an invalid glob.
func NewProvider(opts Options) (*Provider, error) {
	compile := opts.CompileGlob
	if compile == nil {
		compile = glob.Compile
	}
	size := opts.ParseCacheSize
	if size <= 0 {
		size = defaultParseCacheSize
	}
	cache, err := lru.New[string, parseResult](size)
	if err != nil {
		return nil, errors.InternalError("create moniker parse cache", err)
	}

	rules := make([]compiledRule, 0, len(opts.Rules))
	for i := len(opts.Rules) - 1; i >= 0; i-- {
		r := opts.Rules[i]
		m, err := compile(r.Glob)
		if err != nil {
			return nil, err
		}
		rules = append(rules, compiledRule{Rule: r, match: m})
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	return &Provider{
		def:         opts.Definition,
		cmp:         NewComparer(opts.Definition),
		parser:      NewRangeParser(opts.Definition),
		rules:       rules,
		scope:       opts.BuildScope,
		metadata:    opts.Metadata,
		logger:      logger,
		recorder:    recorder,
		parseCache:  cache,
		configRange: make(map[string]SourceValue),
		fileLevel:   make(map[string]fileResult),
	}, nil
}

// Definition returns the definition the provider resolves against.
func (p *Provider) Definition() *Definition { return p.def }

// Comparer returns the definition-order comparer.
func (p *Provider) Comparer() Comparer { return p.cmp }

// GetConfigMonikerRange returns the configured range expression for file, or
// "" when nothing applies. An explicit group mapping takes precedence and
// skips the glob rules entirely.
func (p *Provider) GetConfigMonikerRange(file string) string {
	return p.configMonikerRange(file).Value
}

func (p *Provider) configMonikerRange(file string) SourceValue {
	file = glob.Normalize(file)

	p.mu.RLock()
	v, ok := p.configRange[file]
	p.mu.RUnlock()
	if ok {
		return v
	}

	v = p.computeConfigMonikerRange(file)

	p.mu.Lock()
	p.configRange[file] = v
	p.mu.Unlock()
	return v
}

func (p *Provider) computeConfigMonikerRange(file string) SourceValue {
	if p.scope != nil {
		if mapping, ok := p.scope.MapPath(file); ok {
			return SourceValue{Value: mapping.MonikerRange, Source: mapping.Source}
		}
	}
	for _, r := range p.rules {
		if r.match(file) {
			return SourceValue{Value: r.Range, Source: r.Source}
		}
	}
	return SourceValue{}
}

// GetFileLevelMonikers returns the monikers that apply to file: the config
// range intersected with the file's own metadata declaration. Problems are
// returned as diagnostics together with a best-effort (possibly empty) list.
func (p *Provider) GetFileLevelMonikers(file string) ([]*errors.Diagnostic, List) {
	file = glob.Normalize(file)

	p.mu.RLock()
	res, ok := p.fileLevel[file]
	p.mu.RUnlock()
	if !ok {
		// Two goroutines may race to compute the same file; both results are
		// identical so last-writer-wins is harmless.
		res = p.computeFileLevelMonikers(file)
		p.mu.Lock()
		p.fileLevel[file] = res
		p.mu.Unlock()

		p.recorder.IncMonikerResolution(metrics.LevelFile, len(res.monikers) > 0)
		for _, d := range res.diags {
			p.recorder.IncDiagnostic(d.Code)
		}
		p.logger.Debug("Resolved file monikers",
			logfields.File(file),
			logfields.Monikers(res.monikers),
			logfields.Count(len(res.diags)))
	}
	return slices.Clone(res.diags), slices.Clone(res.monikers)
}

func (p *Provider) computeFileLevelMonikers(file string) fileResult {
	var diags []*errors.Diagnostic

	configRange := p.configMonikerRange(file)
	configMonikers, err := p.parseRange(configRange.Value)
	if err != nil {
		diags = append(diags, errors.InvalidMonikerRange(configRange.Value, err, configRange.Source))
		configMonikers = List{}
	}

	var meta *FileMetadata
	if p.metadata != nil {
		metaDiags, m := p.metadata.GetMetadata(file)
		diags = append(diags, metaDiags...)
		meta = m
	}
	if !meta.declaresMonikers() {
		return fileResult{diags: diags, monikers: configMonikers}
	}

	declared := meta.primarySource(file)
	if configMonikers.IsEmpty() {
		diags = append(diags, errors.MonikerRangeUndefined(declared))
		return fileResult{diags: diags, monikers: List{}}
	}

	var (
		fileRange    string
		fileMonikers List
	)
	if meta.hasRange() {
		if len(meta.Monikers) > 0 {
			diags = append(diags, errors.DuplicateMonikerConfig(declared))
		}
		fileRange = meta.MonikerRange.Value
		fileMonikers, err = p.parseRange(fileRange)
		if err != nil {
			diags = append(diags, errors.InvalidMonikerRange(fileRange, err, meta.MonikerRange.Source))
			return fileResult{diags: diags, monikers: List{}}
		}
	} else {
		var names []string
		exprs := make([]string, 0, len(meta.Monikers))
		for _, item := range meta.Monikers {
			exprs = append(exprs, item.Value)
			list, err := p.parseRange(item.Value)
			if err != nil {
				diags = append(diags, errors.InvalidMonikerRange(item.Value, err, item.Source))
				continue
			}
			names = append(names, list...)
		}
		fileRange = strings.Join(exprs, " || ")
		fileMonikers = normalizeList(p.cmp, names)
	}

	result := configMonikers.Intersect(fileMonikers)
	if result.IsEmpty() {
		diags = append(diags, errors.MonikerRangeOutOfScope(
			configRange.Value, configMonikers, fileRange, fileMonikers, declared))
	}
	return fileResult{diags: diags, monikers: result}
}

// Invalidate drops the cached results of files so the next lookup rereads
// their metadata. With no arguments every file is dropped.
func (p *Provider) Invalidate(files ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(files) == 0 {
		clear(p.configRange)
		clear(p.fileLevel)
		return
	}
	for _, f := range files {
		f = glob.Normalize(f)
		delete(p.configRange, f)
		delete(p.fileLevel, f)
	}
}

// GetZoneLevelMonikers resolves a moniker zone range declared inside file.
func (p *Provider) GetZoneLevelMonikers(file, zoneRange string) (*errors.Diagnostic, List) {
	return p.GetZoneLevelMonikersAt(file, SourceValue{Value: zoneRange, Source: &errors.SourceInfo{File: glob.Normalize(file)}})
}

// GetZoneLevelMonikersAt is GetZoneLevelMonikers with the zone's source
// location for diagnostics. The zone's monikers must intersect the file-level
// monikers; an empty result is reported but still returned.
func (p *Provider) GetZoneLevelMonikersAt(file string, zone SourceValue) (*errors.Diagnostic, List) {
	diag, list := p.zoneLevelMonikers(file, zone)
	p.recorder.IncMonikerResolution(metrics.LevelZone, len(list) > 0)
	if diag != nil {
		p.recorder.IncDiagnostic(diag.Code)
	}
	return diag, list
}

func (p *Provider) zoneLevelMonikers(file string, zone SourceValue) (*errors.Diagnostic, List) {
	_, fileMonikers := p.GetFileLevelMonikers(file)
	if fileMonikers.IsEmpty() {
		return errors.MonikerRangeUndefined(zone.Source), List{}
	}

	zoneMonikers, err := p.parseRange(zone.Value)
	if err != nil {
		return errors.InvalidMonikerRange(zone.Value, err, zone.Source), List{}
	}

	result := normalizeList(p.cmp, fileMonikers.Intersect(zoneMonikers))
	if result.IsEmpty() {
		return errors.ZoneMonikerRangeOutOfScope(zone.Value, zoneMonikers, fileMonikers, zone.Source), List{}
	}
	return nil, result
}

// parseRange parses through the bounded cache. Cached lists are shared, so
// callers must not modify them in place.
func (p *Provider) parseRange(expr string) (List, error) {
	key := strings.TrimSpace(expr)
	if r, ok := p.parseCache.Get(key); ok {
		return r.list, r.err
	}
	list, err := p.parser.Parse(key)
	p.parseCache.Add(key, parseResult{list: list, err: err})
	return list, err
}

func (m *FileMetadata) primarySource(file string) *errors.SourceInfo {
	if m.hasRange() && m.MonikerRange.Source != nil {
		return m.MonikerRange.Source
	}
	for _, item := range m.Monikers {
		if item.Source != nil {
			return item.Source
		}
	}
	return &errors.SourceInfo{File: file}
}

func (v SourceValue) String() string {
	if v.Source == nil {
		return v.Value
	}
	return fmt.Sprintf("%s (%s)", v.Value, v.Source)
}
