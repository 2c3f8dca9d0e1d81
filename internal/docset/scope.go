package docset

import (
	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/glob"
	"github.com/dotnet/docfx-sub027/internal/moniker"
)

type groupMatcher struct {
	mapping moniker.PathMapping
	include glob.Matcher
	exclude glob.Matcher
}

// BuildScope assigns files to the config's named groups. Groups are tried in
// declaration order and the first match wins.
type BuildScope struct {
	groups []groupMatcher
}

// NewBuildScope compiles the group globs. configFile labels group sources in
// diagnostics.
func NewBuildScope(groups config.Groups, configFile string) (*BuildScope, error) {
	s := &BuildScope{groups: make([]groupMatcher, 0, len(groups))}
	for _, g := range groups {
		include, err := glob.CompileAll(g.Files)
		if err != nil {
			return nil, err
		}
		exclude, err := glob.CompileAll(g.Exclude)
		if err != nil {
			return nil, err
		}
		s.groups = append(s.groups, groupMatcher{
			mapping: moniker.PathMapping{
				Group:        g.Name,
				MonikerRange: g.MonikerRange,
				Source:       &errors.SourceInfo{File: configFile, Line: g.Line},
			},
			include: include,
			exclude: exclude,
		})
	}
	return s, nil
}

// MapPath implements moniker.BuildScope.
func (s *BuildScope) MapPath(path string) (moniker.PathMapping, bool) {
	path = glob.Normalize(path)
	for _, g := range s.groups {
		if g.include(path) && !g.exclude(path) {
			return g.mapping, true
		}
	}
	return moniker.PathMapping{}, false
}

// Rules converts the config's monikerRange mapping into provider rules.
func Rules(rules config.RangeRules, configFile string) []moniker.Rule {
	out := make([]moniker.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, moniker.Rule{
			Glob:   r.Glob,
			Range:  r.Range,
			Source: &errors.SourceInfo{File: configFile, Line: r.Line, Column: r.Column},
		})
	}
	return out
}
