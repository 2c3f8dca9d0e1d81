package moniker

import (
	"sort"
	"strings"
)

// Comparer orders moniker names by their declaration index in a Definition.
// Names absent from the definition sort after every known moniker, ordered
// among themselves by case-folded name.
type Comparer struct {
	def *Definition
}

// NewComparer creates a comparer over def. A nil definition treats every
// moniker as unknown.
func NewComparer(def *Definition) Comparer {
	return Comparer{def: def}
}

// Compare returns -1, 0 or +1. Names equal ignoring case compare as 0.
func (c Comparer) Compare(a, b string) int {
	ka, kb := foldKey(a), foldKey(b)
	if ka == kb {
		return 0
	}
	ia, okA := c.position(ka)
	ib, okB := c.position(kb)
	switch {
	case okA && okB:
		return cmpInt(ia, ib)
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(ka, kb)
}

// Less is Compare(a, b) < 0.
func (c Comparer) Less(a, b string) bool { return c.Compare(a, b) < 0 }

// Sort orders names in place.
func (c Comparer) Sort(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return c.Less(names[i], names[j]) })
}

func (c Comparer) position(key string) (int, bool) {
	if c.def == nil {
		return 0, false
	}
	i, ok := c.def.index[key]
	return i, ok
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
