package intset

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Map maps uint32 keys to uint32 values. Iteration is by ascending key.
// The zero value is an empty map ready to use.
type Map struct {
	m    map[uint32]uint32
	keys []uint32 // sorted cache, nil if invalid
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{m: make(map[uint32]uint32)}
}

// Set associates key k with value v.
func (m *Map) Set(k, v uint32) {
	if m.m == nil {
		m.m = make(map[uint32]uint32)
	}
	if _, ok := m.m[k]; !ok {
		m.keys = nil
	}
	m.m[k] = v
}

// Get returns the value for k. If k is not mapped, Get returns (Invalid, false).
func (m *Map) Get(k uint32) (uint32, bool) {
	if m == nil {
		return Invalid, false
	}
	v, ok := m.m[k]
	if !ok {
		return Invalid, false
	}
	return v, true
}

// Has is true if k is mapped.
func (m *Map) Has(k uint32) bool {
	_, ok := m.Get(k)
	return ok
}

// Len returns the number of mappings.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.m)
}

// Keys returns a fresh set holding the keys of m. The set belongs to the
// caller.
func (m *Map) Keys() *Set {
	s := &Set{}
	for _, k := range m.sortedKeys() {
		s.Add(k)
	}
	return s
}

// Values returns a fresh set holding the values of m.
func (m *Map) Values() *Set {
	s := &Set{}
	if m != nil {
		for _, v := range m.m {
			s.Add(v)
		}
	}
	return s
}

// All iterates over the mappings of m by ascending key.
func (m *Map) All() iter.Seq2[uint32, uint32] {
	return func(yield func(uint32, uint32) bool) {
		for _, k := range m.sortedKeys() {
			if !yield(k, m.m[k]) {
				return
			}
		}
	}
}

// Copy returns an independent copy of m.
func (m *Map) Copy() *Map {
	c := NewMap()
	if m != nil {
		for k, v := range m.m {
			c.m[k] = v
		}
	}
	return c
}

func (m *Map) sortedKeys() []uint32 {
	if m == nil {
		return nil
	}
	if m.keys == nil || len(m.keys) != len(m.m) {
		m.keys = make([]uint32, 0, len(m.m))
		for k := range m.m {
			m.keys = append(m.keys, k)
		}
		slices.Sort(m.keys)
	}
	return m.keys
}

func (m *Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for k, v := range m.All() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&b, "%d→%d", k, v)
	}
	b.WriteByte('}')
	return b.String()
}
