/*
Package intset implements dense sets of unsigned 32-bit integers and
integer-to-integer maps, as used for glyph and code-point bookkeeping.

A Set is a paged bitset. Values are split into a page number (the upper 23
bits) and a bit position within a 512-bit page. Only pages holding at least
one value are allocated, and pages are kept ordered by page number, so
iteration always proceeds in ascending order.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package intset

import (
	"fmt"
	"iter"
	"math/bits"
	"sort"
	"strings"
)

// Invalid is the sentinel value which never is a member of a set. Passed as
// a start value to Next or NextMany, it denotes "from the beginning".
const Invalid uint32 = 0xFFFFFFFF

const (
	pageBits  = 9
	pageSize  = 1 << pageBits // values per page
	pageMask  = pageSize - 1
	pageWords = pageSize / 64
)

type page struct {
	major uint32
	bits  [pageWords]uint64
}

func (p *page) population() int {
	n := 0
	for _, w := range p.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

func (p *page) empty() bool {
	for _, w := range p.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// next returns the first bit position ≥ from within the page, or -1.
func (p *page) next(from int) int {
	for i := from / 64; i < pageWords; i++ {
		w := p.bits[i]
		if i == from/64 {
			w &= ^uint64(0) << (from % 64)
		}
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// Set is a set of uint32 values. The zero value is an empty set ready to use.
type Set struct {
	pages []page // ordered by major
	pop   int    // cached population, -1 if unknown
}

// New creates a set containing vals.
func New(vals ...uint32) *Set {
	s := &Set{}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

func (s *Set) find(major uint32) (int, bool) {
	i := sort.Search(len(s.pages), func(k int) bool { return s.pages[k].major >= major })
	return i, i < len(s.pages) && s.pages[i].major == major
}

func (s *Set) pageFor(major uint32) *page {
	i, ok := s.find(major)
	if !ok {
		s.pages = append(s.pages, page{})
		copy(s.pages[i+1:], s.pages[i:])
		s.pages[i] = page{major: major}
	}
	return &s.pages[i]
}

// Add inserts v. Adding Invalid is a no-op.
func (s *Set) Add(v uint32) {
	if v == Invalid {
		return
	}
	p := s.pageFor(v >> pageBits)
	m := v & pageMask
	p.bits[m/64] |= 1 << (m % 64)
	s.pop = -1
}

// AddRange inserts all values from lo to hi, inclusive.
func (s *Set) AddRange(lo, hi uint32) {
	if hi == Invalid {
		hi--
	}
	for v := lo; v <= hi; v++ {
		s.Add(v)
		if v == hi {
			break
		}
	}
}

// Del removes v from the set.
func (s *Set) Del(v uint32) {
	i, ok := s.find(v >> pageBits)
	if !ok {
		return
	}
	m := v & pageMask
	s.pages[i].bits[m/64] &^= 1 << (m % 64)
	if s.pages[i].empty() {
		s.pages = append(s.pages[:i], s.pages[i+1:]...)
	}
	s.pop = -1
}

// Contains is true if v is a member of s.
func (s *Set) Contains(v uint32) bool {
	if s == nil || v == Invalid {
		return false
	}
	i, ok := s.find(v >> pageBits)
	if !ok {
		return false
	}
	m := v & pageMask
	return s.pages[i].bits[m/64]&(1<<(m%64)) != 0
}

// Population returns the number of values in s.
func (s *Set) Population() int {
	if s == nil {
		return 0
	}
	if s.pop < 0 || (s.pop == 0 && len(s.pages) > 0) {
		n := 0
		for i := range s.pages {
			n += s.pages[i].population()
		}
		s.pop = n
	}
	return s.pop
}

// IsEmpty is true if s has no members.
func (s *Set) IsEmpty() bool {
	return s == nil || len(s.pages) == 0
}

// Clear removes all values.
func (s *Set) Clear() {
	s.pages = s.pages[:0]
	s.pop = 0
}

// Union adds all values of o to s.
func (s *Set) Union(o *Set) {
	if o == nil {
		return
	}
	for i := range o.pages {
		p := s.pageFor(o.pages[i].major)
		for w := range p.bits {
			p.bits[w] |= o.pages[i].bits[w]
		}
	}
	s.pop = -1
}

// Intersects is true if s and o have at least one value in common.
func (s *Set) Intersects(o *Set) bool {
	if s == nil || o == nil {
		return false
	}
	for i := range o.pages {
		j, ok := s.find(o.pages[i].major)
		if !ok {
			continue
		}
		for w := range o.pages[i].bits {
			if o.pages[i].bits[w]&s.pages[j].bits[w] != 0 {
				return true
			}
		}
	}
	return false
}

// Copy returns an independent copy of s.
func (s *Set) Copy() *Set {
	c := &Set{pop: -1}
	if s != nil {
		c.pages = append([]page(nil), s.pages...)
	}
	return c
}

// Equals is true if s and o contain the same values.
func (s *Set) Equals(o *Set) bool {
	if s.Population() != o.Population() {
		return false
	}
	for v := range s.All() {
		if !o.Contains(v) {
			return false
		}
	}
	return true
}

// Next returns the smallest member greater than v. If v is Invalid, Next
// returns the smallest member. If there is no such member, Next returns
// Invalid.
func (s *Set) Next(v uint32) uint32 {
	if s == nil || len(s.pages) == 0 {
		return Invalid
	}
	var major uint32
	var from int
	if v == Invalid {
		major, from = s.pages[0].major, 0
	} else {
		if v == Invalid-1 {
			return Invalid
		}
		v++
		major, from = v>>pageBits, int(v&pageMask)
	}
	i, ok := s.find(major)
	if !ok {
		from = 0
	}
	for ; i < len(s.pages); i++ {
		if b := s.pages[i].next(from); b >= 0 {
			return s.pages[i].major<<pageBits | uint32(b)
		}
		from = 0
	}
	return Invalid
}

// NextMany writes members of s greater than after into out, in ascending
// order, and returns the number of values written. after == Invalid starts
// with the smallest member. A result smaller than len(out) means the set is
// exhausted.
func (s *Set) NextMany(after uint32, out []uint32) int {
	n := 0
	for v := s.Next(after); v != Invalid && n < len(out); v = s.Next(v) {
		out[n] = v
		n++
	}
	return n
}

// Min returns the smallest member, or Invalid for an empty set.
func (s *Set) Min() uint32 {
	return s.Next(Invalid)
}

// Max returns the largest member, or Invalid for an empty set.
func (s *Set) Max() uint32 {
	if s == nil || len(s.pages) == 0 {
		return Invalid
	}
	p := &s.pages[len(s.pages)-1]
	for w := pageWords - 1; w >= 0; w-- {
		if p.bits[w] != 0 {
			return p.major<<pageBits | uint32(w*64+63-bits.LeadingZeros64(p.bits[w]))
		}
	}
	return Invalid
}

// All iterates over the members of s in ascending order.
func (s *Set) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if s == nil {
			return
		}
		for i := range s.pages {
			p := &s.pages[i]
			for w, word := range p.bits {
				for word != 0 {
					b := bits.TrailingZeros64(word)
					word &= word - 1
					if !yield(p.major<<pageBits | uint32(w*64+b)) {
						return
					}
				}
			}
		}
	}
}

// Values returns the members of s as an ascending slice.
func (s *Set) Values() []uint32 {
	vals := make([]uint32, 0, s.Population())
	for v := range s.All() {
		vals = append(vals, v)
	}
	return vals
}

func (s *Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for v := range s.All() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&b, "%d", v)
	}
	b.WriteByte('}')
	return b.String()
}
