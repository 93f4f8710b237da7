package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_Switches(t *testing.T) {
	s := Parse("a=on,b=off,c=TRUE,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e", "A"} {
		assert.True(t, s.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, s.Enabled(name, 1), name)
	}
}

func TestEnabled_Percentages(t *testing.T) {
	s := Parse("all=100%,none=0%,canary=50%,junk=abc%")

	assert.True(t, s.Enabled("all", 0))
	assert.False(t, s.Enabled("none", 7))
	assert.False(t, s.Enabled("junk", 7))
	assert.False(t, s.Enabled("canary", 0))

	first := s.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Enabled("canary", 42))
	}

	on := 0
	for uid := uint(1); uid <= 200; uid++ {
		if s.Enabled("canary", uid) {
			on++
		}
	}
	assert.Greater(t, on, 0)
	assert.Less(t, on, 200)
}

func TestParse_SkipsMalformedEntries(t *testing.T) {
	s := Parse(" bad ,x=on, y = 20% ,=on,z=")

	snap := s.Snapshot(9)
	assert.Len(t, snap, 2)
	assert.True(t, snap["x"])
	assert.Contains(t, snap, "y")
}

func TestNilSet(t *testing.T) {
	var s *Set
	assert.False(t, s.Enabled(ViewStream, 1))
}
