package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RangeRule maps a glob to a moniker range expression. Line and Column locate
// the range value in the config file.
type RangeRule struct {
	Glob   string
	Range  string
	Line   int
	Column int
}

// RangeRules is a glob to moniker range mapping that keeps declaration order.
type RangeRules []RangeRule

func (r *RangeRules) UnmarshalYAML(value *yaml.Node) error {
	if err := expectMapping(value, "glob to moniker range"); err != nil {
		return err
	}
	out := make(RangeRules, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: moniker range for %q must be a string", v.Line, k.Value)
		}
		out = append(out, RangeRule{Glob: k.Value, Range: v.Value, Line: v.Line, Column: v.Column})
	}
	*r = out
	return nil
}

func (r RangeRules) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, rule := range r {
		n.Content = append(n.Content, stringNode(rule.Glob), stringNode(rule.Range))
	}
	return n, nil
}

// MonikerListRule maps a glob to an explicit moniker list.
type MonikerListRule struct {
	Glob     string
	Monikers []string
	Line     int
	Column   int
}

// MonikerListRules is a glob to moniker list mapping that keeps declaration
// order. A single string value is a one-element list.
type MonikerListRules []MonikerListRule

func (r *MonikerListRules) UnmarshalYAML(value *yaml.Node) error {
	if err := expectMapping(value, "glob to moniker list"); err != nil {
		return err
	}
	out := make(MonikerListRules, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		rule := MonikerListRule{Glob: k.Value, Line: v.Line, Column: v.Column}
		switch v.Kind {
		case yaml.ScalarNode:
			rule.Monikers = []string{v.Value}
		case yaml.SequenceNode:
			if err := v.Decode(&rule.Monikers); err != nil {
				return fmt.Errorf("line %d: monikers for %q: %w", v.Line, k.Value, err)
			}
		default:
			return fmt.Errorf("line %d: monikers for %q must be a string or a list", v.Line, k.Value)
		}
		out = append(out, rule)
	}
	*r = out
	return nil
}

func (r MonikerListRules) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, rule := range r {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, m := range rule.Monikers {
			seq.Content = append(seq.Content, stringNode(m))
		}
		n.Content = append(n.Content, stringNode(rule.Glob), seq)
	}
	return n, nil
}

// Group assigns files to a named group with its own moniker range. A file
// in a group takes the group's range and is not matched against monikerRange.
type Group struct {
	Name         string   `yaml:"-"`
	Files        []string `yaml:"files"`
	Exclude      []string `yaml:"exclude,omitempty"`
	MonikerRange string   `yaml:"monikerRange,omitempty"`
	Line         int      `yaml:"-"`
}

// Groups keeps declaration order; the first group matching a file wins.
type Groups []Group

func (g *Groups) UnmarshalYAML(value *yaml.Node) error {
	if err := expectMapping(value, "group name to group"); err != nil {
		return err
	}
	out := make(Groups, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		var group Group
		if err := v.Decode(&group); err != nil {
			return fmt.Errorf("line %d: group %q: %w", v.Line, k.Value, err)
		}
		group.Name = k.Value
		group.Line = k.Line
		out = append(out, group)
	}
	*g = out
	return nil
}

func (g Groups) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, group := range g {
		var v yaml.Node
		if err := v.Encode(group); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, stringNode(group.Name), &v)
	}
	return n, nil
}

func expectMapping(value *yaml.Node, what string) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of %s", value.Line, what)
	}
	return nil
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
