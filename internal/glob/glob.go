// Package glob compiles doublestar patterns ("**/*.md", "docs/{a,b}/**") into
// path matchers and enumerates docset files.
package glob

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dotnet/docfx-sub027/internal/errors"
)

// Matcher reports whether a docset-relative path matches a compiled pattern.
type Matcher func(path string) bool

// Compile returns a matcher for pattern. Malformed patterns are rejected
// here, never at match time.
func Compile(pattern string) (Matcher, error) {
	pattern = Normalize(pattern)
	if pattern == "" || !doublestar.ValidatePattern(pattern) {
		return nil, errors.InvalidGlob(pattern, fmt.Errorf("malformed pattern %q", pattern))
	}
	return func(path string) bool {
		ok, err := doublestar.Match(pattern, Normalize(path))
		return err == nil && ok
	}, nil
}

// CompileAll compiles a pattern list into a single matcher that matches when
// any pattern matches. An empty list never matches.
func CompileAll(patterns []string) (Matcher, error) {
	matchers := make([]Matcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := Compile(p)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return func(path string) bool {
		for _, m := range matchers {
			if m(path) {
				return true
			}
		}
		return false
	}, nil
}

// Normalize converts a path or pattern to the forward-slash, docset-relative
// form used for matching.
func Normalize(path string) string {
	path = filepath.ToSlash(strings.TrimSpace(path))
	return strings.TrimPrefix(path, "./")
}

// Files returns the sorted, de-duplicated files in fsys that match any include
// pattern and no exclude pattern.
func Files(fsys fs.FS, include, exclude []string) ([]string, error) {
	excluded, err := CompileAll(exclude)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, Normalize(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.InvalidGlob(pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup || excluded(m) {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
