package moniker

import (
	"strings"

	"github.com/dotnet/docfx-sub027/internal/util/sets"
)

// List is an ordered, de-duplicated set of moniker names. Lists produced by
// this package are sorted by the definition order.
type List []string

// IsEmpty reports whether the list has no monikers.
func (l List) IsEmpty() bool { return len(l) == 0 }

// Contains reports whether name is in the list, ignoring case.
func (l List) Contains(name string) bool {
	key := foldKey(name)
	for _, m := range l {
		if foldKey(m) == key {
			return true
		}
	}
	return false
}

// Intersect returns the monikers of l that are also in other, ignoring case.
// The order of l is kept.
func (l List) Intersect(other List) List {
	keys := other.keys()
	out := make(List, 0, len(l))
	for _, m := range l {
		if keys.Has(foldKey(m)) {
			out = append(out, m)
		}
	}
	return out
}

// Union returns the monikers of l followed by those of other that l lacks,
// ignoring case. Callers needing definition order sort the result with a Comparer.
func (l List) Union(other List) List {
	keys := l.keys()
	out := append(make(List, 0, len(l)+len(other)), l...)
	for _, m := range other {
		key := foldKey(m)
		if keys.Has(key) {
			continue
		}
		keys.Add(key)
		out = append(out, m)
	}
	return out
}

// Equal reports whether both lists hold the same monikers, ignoring case and order.
func (l List) Equal(other List) bool {
	a, b := l.keys(), other.keys()
	return len(a) == len(b) && len(a.Intersect(b)) == len(a)
}

func (l List) String() string {
	return strings.Join(l, ", ")
}

// Strings returns a copy of the names.
func (l List) Strings() []string {
	return append([]string(nil), l...)
}

func (l List) keys() sets.Set[string] {
	s := sets.New[string]()
	for _, m := range l {
		s.Add(foldKey(m))
	}
	return s
}

// normalizeList de-duplicates names ignoring case and sorts them with c.
func normalizeList(c Comparer, names []string) List {
	seen := sets.New[string]()
	out := make(List, 0, len(names))
	for _, n := range names {
		key := foldKey(n)
		if seen.Has(key) {
			continue
		}
		seen.Add(key)
		out = append(out, n)
	}
	c.Sort(out)
	return out
}
