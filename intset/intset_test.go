package intset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBasics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	s := New(5, 1, 70000, 1, 600)
	assert.Equal(t, 4, s.Population())
	assert.True(t, s.Contains(600))
	assert.False(t, s.Contains(2))
	assert.False(t, s.Contains(Invalid))
	if diff := cmp.Diff([]uint32{1, 5, 600, 70000}, s.Values()); diff != "" {
		t.Errorf("unexpected values (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint32(1), s.Min())
	assert.Equal(t, uint32(70000), s.Max())
	s.Add(Invalid)
	assert.Equal(t, 4, s.Population())
}

func TestSetZeroValue(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	var s Set
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Population())
	assert.Equal(t, Invalid, s.Next(Invalid))
	assert.Equal(t, Invalid, s.Max())
	s.Add(3)
	assert.Equal(t, 1, s.Population())
}

func TestSetNext(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	s := New(0, 511, 512, 4096, 4261)
	var got []uint32
	for v := s.Next(Invalid); v != Invalid; v = s.Next(v) {
		got = append(got, v)
	}
	assert.Equal(t, []uint32{0, 511, 512, 4096, 4261}, got)
	assert.Equal(t, uint32(4096), s.Next(1000))
	assert.Equal(t, Invalid, s.Next(4261))
}

func TestSetRangeUnionIntersects(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	a := &Set{}
	a.AddRange(10, 1100)
	assert.Equal(t, 1091, a.Population())
	b := New(5, 2000)
	assert.False(t, a.Intersects(b))
	b.Add(1100)
	assert.True(t, a.Intersects(b))
	a.Union(b)
	assert.Equal(t, 1093, a.Population())
	c := a.Copy()
	c.Add(99999)
	assert.False(t, a.Contains(99999))
	assert.False(t, a.Equals(c))
	c.Del(99999)
	assert.True(t, a.Equals(c))
	a.Clear()
	assert.True(t, a.IsEmpty())
}

func TestNextManyExact(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	s := New(3, 1, 2, 900, 65536)
	out := make([]uint32, s.Population())
	n := s.NextMany(Invalid, out)
	require.Equal(t, 5, n)
	assert.Equal(t, []uint32{1, 2, 3, 900, 65536}, out)
}

func TestNextManyTruncatedAndResumed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	s := New(3, 1, 2, 900, 65536)
	out := make([]uint32, 2)
	n := s.NextMany(Invalid, out)
	require.Equal(t, 2, n)
	assert.Equal(t, []uint32{1, 2}, out)
	n = s.NextMany(out[1], out)
	require.Equal(t, 2, n)
	assert.Equal(t, []uint32{3, 900}, out)
	n = s.NextMany(out[1], out)
	require.Equal(t, 1, n, "short write signals exhaustion")
	assert.Equal(t, uint32(65536), out[0])
}

func TestMap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	m := NewMap()
	m.Set(40, 2)
	m.Set(0, 0)
	m.Set(7, 1)
	assert.Equal(t, 3, m.Len())
	v, ok := m.Get(7)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), v)
	_, ok = m.Get(8)
	assert.False(t, ok)
	keys := m.Keys()
	assert.Equal(t, []uint32{0, 7, 40}, keys.Values())
	keys.Add(99)
	assert.False(t, m.Has(99), "keys set must be independent of the map")
	var order []uint32
	for k := range m.All() {
		order = append(order, k)
	}
	assert.Equal(t, []uint32{0, 7, 40}, order)
	assert.Equal(t, []uint32{0, 1, 2}, m.Values().Values())
	assert.Equal(t, "{0→0 7→1 40→2}", m.String())
}
