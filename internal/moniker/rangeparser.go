package moniker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dotnet/docfx-sub027/internal/util/sets"
)

// RangeError reports a malformed range expression. It is distinct from a
// well-formed expression that selects no monikers, which parses to an empty
// List without error.
type RangeError struct {
	Expression string
	Offset     int
	Reason     string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s (at offset %d in %q)", e.Reason, e.Offset, e.Expression)
}

// RangeParser expands range expressions against a Definition.
//
// Grammar:
//
//	expression := and-set ( "||" and-set )*
//	and-set    := comparator ( WS comparator )*
//	comparator := [ ">=" | "<=" | ">" | "<" | "=" ] name
//
// A bare name is a moniker or a group alias. Relational operators select the
// monikers of the operand's product on the requested side of it in
// declaration order. Comparators within an and-set intersect; and-sets union.
//
// Parse is pure: it keeps no state between calls, so callers cache results.
type RangeParser struct {
	def *Definition
	cmp Comparer
}

// NewRangeParser creates a parser for def.
func NewRangeParser(def *Definition) *RangeParser {
	return &RangeParser{def: def, cmp: NewComparer(def)}
}

// Parse expands expr into a sorted moniker list. Empty and whitespace-only
// expressions yield an empty list and no error.
func (p *RangeParser) Parse(expr string) (List, error) {
	if strings.TrimSpace(expr) == "" {
		return List{}, nil
	}

	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	result := sets.New[string]()
	var clause []token
	flush := func(offset int) error {
		if len(clause) == 0 {
			return &RangeError{Expression: expr, Offset: offset, Reason: "empty expression around '||'"}
		}
		names, err := p.evalClause(expr, clause)
		if err != nil {
			return err
		}
		for n := range names {
			result.Add(n)
		}
		clause = clause[:0]
		return nil
	}

	for _, t := range tokens {
		if t.kind == tokenOr {
			if err := flush(t.offset); err != nil {
				return nil, err
			}
			continue
		}
		clause = append(clause, t)
	}
	if err := flush(len(expr)); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result))
	for key := range result {
		m, _, _ := p.def.Lookup(key)
		names = append(names, m.Name)
	}
	return normalizeList(p.cmp, names), nil
}

// evalClause intersects the comparators of one and-set. The returned set is
// keyed by folded moniker name.
func (p *RangeParser) evalClause(expr string, clause []token) (sets.Set[string], error) {
	var acc sets.Set[string]
	for i := 0; i < len(clause); i++ {
		op := ""
		t := clause[i]
		if t.kind == tokenOperator {
			op = t.text
			if i+1 >= len(clause) || clause[i+1].kind != tokenName {
				return nil, &RangeError{Expression: expr, Offset: t.offset, Reason: fmt.Sprintf("operator '%s' must be followed by a moniker name", op)}
			}
			i++
			t = clause[i]
		}

		selected, err := p.evalComparator(expr, op, t)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = selected
		} else {
			acc = acc.Intersect(selected)
		}
	}
	return acc, nil
}

func (p *RangeParser) evalComparator(expr, op string, name token) (sets.Set[string], error) {
	if members, ok := p.def.Group(name.text); ok {
		if op != "" && op != "=" {
			return nil, &RangeError{Expression: expr, Offset: name.offset, Reason: fmt.Sprintf("operator '%s' cannot be applied to group '%s'", op, name.text)}
		}
		out := sets.New[string]()
		for _, m := range members {
			out.Add(foldKey(m))
		}
		return out, nil
	}

	operand, pivot, ok := p.def.Lookup(name.text)
	if !ok {
		return nil, &RangeError{Expression: expr, Offset: name.offset, Reason: fmt.Sprintf("moniker '%s' is not defined", name.text)}
	}

	out := sets.New[string]()
	if op == "" || op == "=" {
		out.Add(foldKey(operand.Name))
		return out, nil
	}
	for i, m := range p.def.monikers {
		if !strings.EqualFold(m.Product, operand.Product) {
			continue
		}
		var keep bool
		switch op {
		case ">":
			keep = i > pivot
		case ">=":
			keep = i >= pivot
		case "<":
			keep = i < pivot
		case "<=":
			keep = i <= pivot
		}
		if keep {
			out.Add(foldKey(m.Name))
		}
	}
	return out, nil
}

type tokenKind int

const (
	tokenName tokenKind = iota
	tokenOperator
	tokenOr
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '|':
			if i+1 >= len(expr) || expr[i+1] != '|' {
				return nil, &RangeError{Expression: expr, Offset: i, Reason: "expected '||'"}
			}
			tokens = append(tokens, token{kind: tokenOr, text: "||", offset: i})
			i += 2
		case c == '>' || c == '<':
			op := string(c)
			if i+1 < len(expr) && expr[i+1] == '=' {
				op += "="
			}
			tokens = append(tokens, token{kind: tokenOperator, text: op, offset: i})
			i += len(op)
		case c == '=':
			tokens = append(tokens, token{kind: tokenOperator, text: "=", offset: i})
			i++
		case isNameRune(rune(c)):
			start := i
			for i < len(expr) && isNameRune(rune(expr[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokenName, text: expr[start:i], offset: start})
		default:
			r, _ := utf8.DecodeRuneInString(expr[i:])
			return nil, &RangeError{Expression: expr, Offset: i, Reason: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	return tokens, nil
}
