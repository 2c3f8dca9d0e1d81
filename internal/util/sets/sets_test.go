package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Basics(t *testing.T) {
	s := New("a", "b")
	s.Add("c")
	assert.True(t, s.Has("c"))
	s.Delete("a")
	assert.False(t, s.Has("a"))

	c := s.Clone()
	c.Add("z")
	assert.False(t, s.Has("z"))
}

func TestSet_Intersect(t *testing.T) {
	a := New("net-5.0", "net-6.0", "net-7.0")
	b := New("net-6.0", "net-8.0")

	got := Sorted(a.Intersect(b), func(x, y string) bool { return x < y })
	assert.Equal(t, []string{"net-6.0"}, got)
	assert.Empty(t, a.Intersect(New[string]()))
}
