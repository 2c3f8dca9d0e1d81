// Package moniker resolves which documentation versions ("monikers") apply to
// a file or to a content zone inside a file.
//
// A Definition declares every known moniker in order. Range expressions such
// as ">= net-5.0 < net-7.0" are expanded against that definition by a
// RangeParser, and a Provider combines configuration rules, build-scope group
// mappings and per-file metadata into per-file and per-zone moniker lists.
// Semantic problems are reported as diagnostics next to a best-effort result;
// only malformed construction inputs produce errors.
package moniker

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/dotnet/docfx-sub027/internal/errors"
)

// Moniker describes one documentation version.
type Moniker struct {
	Name    string `json:"moniker_name" yaml:"moniker_name"`
	Product string `json:"product_name,omitempty" yaml:"product_name,omitempty"`
}

// DefinitionModel is the decoded shape of a moniker definition resource.
type DefinitionModel struct {
	Monikers []Moniker          `json:"monikers" yaml:"monikers"`
	Groups   map[string][]string `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Definition is a validated, immutable moniker definition. The zero value and
// a nil *Definition both describe "no monikers".
type Definition struct {
	monikers []Moniker
	index    map[string]int      // folded name -> declaration index
	groups   map[string][]string // folded group name -> member names in declared order
}

// ResourceReader fetches a resource as a string. internal/resource implements it.
type ResourceReader interface {
	ReadString(ctx context.Context, path string) (string, error)
}

// LoadDefinition reads and decodes the definition at path. An empty path
// yields an empty definition.
func LoadDefinition(ctx context.Context, reader ResourceReader, path string) (*Definition, error) {
	if strings.TrimSpace(path) == "" {
		return &Definition{}, nil
	}
	content, err := reader.ReadString(ctx, path)
	if err != nil {
		return nil, errors.DefinitionLoadFailed(path, err)
	}
	return ParseDefinition(path, []byte(content))
}

// ParseDefinition decodes a JSON or YAML definition document.
func ParseDefinition(source string, data []byte) (*Definition, error) {
	var model DefinitionModel
	if err := yaml.Unmarshal(data, &model); err != nil {
		return nil, errors.DefinitionLoadFailed(source, err)
	}
	return NewDefinition(source, model)
}

// NewDefinition validates model: names must be unique (case-insensitive) and
// non-empty, and group members must be defined monikers.
func NewDefinition(source string, model DefinitionModel) (*Definition, error) {
	def := &Definition{
		monikers: make([]Moniker, 0, len(model.Monikers)),
		index:    make(map[string]int, len(model.Monikers)),
		groups:   make(map[string][]string, len(model.Groups)),
	}

	for _, m := range model.Monikers {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, errors.DefinitionInvalid(source, "moniker_name cannot be empty")
		}
		if !isValidName(name) {
			return nil, errors.DefinitionInvalid(source, fmt.Sprintf("moniker name %q contains invalid characters", name))
		}
		key := foldKey(name)
		if _, dup := def.index[key]; dup {
			return nil, errors.DefinitionInvalid(source, fmt.Sprintf("moniker %q is defined more than once", name))
		}
		def.index[key] = len(def.monikers)
		def.monikers = append(def.monikers, Moniker{Name: name, Product: strings.TrimSpace(m.Product)})
	}

	for group, members := range model.Groups {
		key := foldKey(group)
		if !isValidName(group) {
			return nil, errors.DefinitionInvalid(source, fmt.Sprintf("group name %q contains invalid characters", group))
		}
		if _, clash := def.index[key]; clash {
			return nil, errors.DefinitionInvalid(source, fmt.Sprintf("group %q has the same name as a moniker", group))
		}
		if _, dup := def.groups[key]; dup {
			return nil, errors.DefinitionInvalid(source, fmt.Sprintf("group %q is defined more than once", group))
		}
		resolved := make([]string, 0, len(members))
		for _, member := range members {
			i, ok := def.index[foldKey(member)]
			if !ok {
				return nil, errors.DefinitionInvalid(source, fmt.Sprintf("group %q references undefined moniker %q", group, member))
			}
			resolved = append(resolved, def.monikers[i].Name)
		}
		def.groups[key] = resolved
	}

	return def, nil
}

// Monikers returns the declared monikers in order.
func (d *Definition) Monikers() []Moniker {
	if d == nil {
		return nil
	}
	return append([]Moniker(nil), d.monikers...)
}

// Len returns the number of declared monikers.
func (d *Definition) Len() int {
	if d == nil {
		return 0
	}
	return len(d.monikers)
}

// Lookup returns the declared moniker for name, ignoring case.
func (d *Definition) Lookup(name string) (Moniker, int, bool) {
	if d == nil {
		return Moniker{}, -1, false
	}
	i, ok := d.index[foldKey(name)]
	if !ok {
		return Moniker{}, -1, false
	}
	return d.monikers[i], i, true
}

// Group returns the members of a group alias, ignoring case.
func (d *Definition) Group(name string) ([]string, bool) {
	if d == nil {
		return nil, false
	}
	members, ok := d.groups[foldKey(name)]
	return members, ok
}

// foldKey is the case-insensitive identity of a moniker or group name.
// cases.Caser is stateful, so a fresh one is created per call.
func foldKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isNameRune(r) {
			return false
		}
	}
	return true
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '.', r == '_':
		return true
	}
	return false
}
