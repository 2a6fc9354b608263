/*
Package handle implements a registry of opaque handles for engine objects.

A handle is an index into a slot map plus a generation counter. Releasing a
handle bumps the slot's generation, so any later use of the old handle is
detected and reported as a stale handle instead of silently reaching a
recycled object. Every kind of object gets its own handle type through
the type parameter, i.e. a `Handle[*Blob]` cannot be passed where a
`Handle[*Face]` is expected.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package handle

import (
	"fmt"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.subset'
func tracer() tracing.Trace {
	return tracing.Select("font.subset")
}

// Handle is an opaque reference to an object of type T living in a Registry.
// The zero value is the invalid handle.
type Handle[T any] struct {
	idx uint32 // slot index + 1
	gen uint32 // generation of the slot at registration time
}

// FromRaw reconstructs a handle from its integer representation, as
// returned by Raw.
func FromRaw[T any](raw uint64) Handle[T] {
	return Handle[T]{idx: uint32(raw), gen: uint32(raw >> 32)}
}

// Raw returns the handle as an opaque integer, suitable for crossing an API
// boundary which knows nothing about Go types.
func (h Handle[T]) Raw() uint64 {
	return uint64(h.gen)<<32 | uint64(h.idx)
}

// IsZero is true for the invalid handle.
func (h Handle[T]) IsZero() bool {
	return h.idx == 0
}

func (h Handle[T]) String() string {
	if h.idx == 0 {
		return "handle(invalid)"
	}
	return fmt.Sprintf("handle(%d@%d)", h.idx-1, h.gen)
}

type slot[T any] struct {
	obj  T
	gen  uint32
	live bool
}

// Registry maps handles to objects of type T.
// A Registry is not safe for concurrent use.
type Registry[T any] struct {
	kind  string
	slots []slot[T]
	free  []uint32
	live  int
}

// NewRegistry creates an empty registry. kind names the object kind in
// error messages, e.g. "blob" or "face".
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind}
}

// Register stores obj and returns a fresh handle for it.
func (r *Registry[T]) Register(obj T) Handle[T] {
	var i uint32
	if n := len(r.free); n > 0 {
		i = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot[T]{gen: 1})
		i = uint32(len(r.slots) - 1)
	}
	s := &r.slots[i]
	s.obj = obj
	s.live = true
	r.live++
	return Handle[T]{idx: i + 1, gen: s.gen}
}

// Resolve returns the object for h. It fails with a stale-handle error if h
// has been released, or with an invalid-argument error if h never
// belonged to this registry.
func (r *Registry[T]) Resolve(h Handle[T]) (T, error) {
	s, err := r.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.obj, nil
}

// Release invalidates h and returns the object it referred to. Releasing a
// handle twice is reported as a stale handle.
func (r *Registry[T]) Release(h Handle[T]) (T, error) {
	var zero T
	s, err := r.lookup(h)
	if err != nil {
		return zero, err
	}
	obj := s.obj
	s.obj = zero
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	r.free = append(r.free, h.idx-1)
	r.live--
	return obj, nil
}

// Len returns the number of live handles.
func (r *Registry[T]) Len() int {
	return r.live
}

func (r *Registry[T]) lookup(h Handle[T]) (*slot[T], error) {
	if h.idx == 0 || int(h.idx) > len(r.slots) {
		return nil, core.Error(core.EINVALID, "%s %v is not a valid handle", r.kind, h)
	}
	s := &r.slots[h.idx-1]
	if !s.live || s.gen != h.gen {
		tracer().Errorf("use of released %s %v", r.kind, h)
		return nil, core.Error(core.ESTALE, "%s %v has been released", r.kind, h)
	}
	return s, nil
}
