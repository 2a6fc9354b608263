/*
Package arena implements a flat byte arena for transferring data between an
engine and its callers.

Every engine owns one arena. Allocations are handed out as Regions, which
carry a generation tag. Freeing a region invalidates the tag, so a reader
holding on to a region after it has been given back gets a stale-handle
error instead of bytes belonging to some later allocation.

Allocation is first-fit over an offset-ordered free list. Neighbouring free
spans are coalesced on release. If no span is large enough, the backing
memory is doubled.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package arena

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.subset'
func tracer() tracing.Trace {
	return tracing.Select("font.subset")
}

const (
	align       = 8
	defaultSize = 4096
	// MaxSize is the upper bound for an arena's backing memory.
	MaxSize = 1 << 31
)

// Region is a block of arena memory. The zero Region is empty and never live.
type Region struct {
	off  uint32
	size uint32
	gen  uint32
}

// Len returns the number of bytes requested for the region.
func (r Region) Len() int {
	return int(r.size)
}

// IsZero is true for the zero Region.
func (r Region) IsZero() bool {
	return r.gen == 0
}

func (r Region) String() string {
	return fmt.Sprintf("region[%d:%d]@%d", r.off, r.off+r.size, r.gen)
}

type span struct {
	off, size uint32
}

type block struct {
	size uint32 // rounded size
	gen  uint32
}

// Arena is a growable flat byte memory. It is not safe for concurrent use.
type Arena struct {
	mem  []byte
	free []span // ordered by offset
	live map[uint32]block
	gen  uint32
}

// New creates an arena with an initial capacity of size bytes. If size is not
// positive, a small default is used.
func New(size int) *Arena {
	if size <= 0 {
		size = defaultSize
	}
	size = roundUp(size)
	return &Arena{
		mem:  make([]byte, size),
		free: []span{{0, uint32(size)}},
		live: make(map[uint32]block),
	}
}

// Alloc reserves n bytes. The memory is zeroed. Alloc grows the arena if
// needed and panics if the arena would exceed MaxSize.
func (a *Arena) Alloc(n int) (Region, error) {
	if n < 0 {
		return Region{}, core.Error(core.EINVALID, "cannot allocate %d bytes", n)
	}
	need := roundUp(n)
	if need == 0 {
		need = align
	}
	i := a.firstFit(uint32(need))
	for i < 0 {
		a.grow(need)
		i = a.firstFit(uint32(need))
	}
	sp := a.free[i]
	if sp.size == uint32(need) {
		a.free = append(a.free[:i], a.free[i+1:]...)
	} else {
		a.free[i] = span{sp.off + uint32(need), sp.size - uint32(need)}
	}
	a.gen++
	if a.gen == 0 {
		a.gen = 1
	}
	a.live[sp.off] = block{size: uint32(need), gen: a.gen}
	clear(a.mem[sp.off : sp.off+uint32(need)])
	return Region{off: sp.off, size: uint32(n), gen: a.gen}, nil
}

// Free gives r back to the arena. Freeing a region twice is a stale access.
func (a *Arena) Free(r Region) error {
	b, err := a.check(r)
	if err != nil {
		return err
	}
	delete(a.live, r.off)
	a.release(span{r.off, b.size})
	return nil
}

// Bytes returns the memory of region r. The slice aliases arena memory and
// is valid until the next call to Alloc, which may move the backing store.
func (a *Arena) Bytes(r Region) ([]byte, error) {
	if _, err := a.check(r); err != nil {
		return nil, err
	}
	return a.mem[r.off : r.off+r.size : r.off+r.size], nil
}

// PutUint32 stores v as the i-th 32-bit word of region r.
func (a *Arena) PutUint32(r Region, i int, v uint32) error {
	b, err := a.word(r, i)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// Uint32 loads the i-th 32-bit word of region r.
func (a *Arena) Uint32(r Region, i int) (uint32, error) {
	b, err := a.word(r, i)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Live returns the number of live regions.
func (a *Arena) Live() int {
	return len(a.live)
}

// Cap returns the size of the backing memory.
func (a *Arena) Cap() int {
	return len(a.mem)
}

// Reset invalidates every live region at once.
func (a *Arena) Reset() {
	clear(a.live)
	a.free = a.free[:0]
	a.free = append(a.free, span{0, uint32(len(a.mem))})
}

// --- Internals -------------------------------------------------------------

func (a *Arena) check(r Region) (block, error) {
	b, ok := a.live[r.off]
	if r.gen == 0 || !ok || b.gen != r.gen {
		return block{}, core.Error(core.ESTALE, "arena %v is not live", r)
	}
	return b, nil
}

func (a *Arena) word(r Region, i int) ([]byte, error) {
	if _, err := a.check(r); err != nil {
		return nil, err
	}
	if i < 0 || (i+1)*4 > int(r.size) {
		return nil, core.Error(core.EINVALID, "word %d out of bounds of %v", i, r)
	}
	o := r.off + uint32(i*4)
	return a.mem[o : o+4], nil
}

func (a *Arena) firstFit(need uint32) int {
	for i, sp := range a.free {
		if sp.size >= need {
			return i
		}
	}
	return -1
}

// grow doubles the backing memory until a span of need bytes will fit at its
// end.
func (a *Arena) grow(need int) {
	old := len(a.mem)
	size := old
	for size-old < need {
		size *= 2
		if size > MaxSize {
			panic(fmt.Sprintf("arena: cannot grow beyond %d bytes", MaxSize))
		}
	}
	tracer().Debugf("arena grows from %d to %d bytes", old, size)
	mem := make([]byte, size)
	copy(mem, a.mem)
	a.mem = mem
	a.release(span{uint32(old), uint32(size - old)})
}

// release inserts sp into the free list, merging with its neighbours.
func (a *Arena) release(sp span) {
	i := sort.Search(len(a.free), func(k int) bool { return a.free[k].off > sp.off })
	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = sp
	if i+1 < len(a.free) && a.free[i].off+a.free[i].size == a.free[i+1].off {
		a.free[i].size += a.free[i+1].size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].size == a.free[i].off {
		a.free[i-1].size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

func roundUp(n int) int {
	return (n + align - 1) &^ (align - 1)
}
