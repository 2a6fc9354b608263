package otsubset

import (
	"github.com/npillmayer/otsubset/arena"
	"github.com/npillmayer/otsubset/core"
)

// U32View is a read-only view of 32-bit values in the engine's arena. The
// view is borrowed: it has to be released, and it cannot be read after it
// has been released or after the engine reclaimed its arena.
type U32View struct {
	e *Engine
	r arena.Region
	n int
}

// Len returns the number of values of the view.
func (v *U32View) Len() int {
	return v.n
}

// At returns the i-th value.
func (v *U32View) At(i int) (uint32, error) {
	if i < 0 || i >= v.n {
		if _, err := v.e.arena.Bytes(v.r); err != nil {
			return 0, err
		}
		return 0, core.Error(core.EINVALID, "index %d out of view range [0…%d)", i, v.n)
	}
	return v.e.arena.Uint32(v.r, i)
}

// Copy returns the values of the view in a slice owned by the caller.
func (v *U32View) Copy() ([]uint32, error) {
	out := make([]uint32, v.n)
	for i := range out {
		x, err := v.e.arena.Uint32(v.r, i)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	if v.n == 0 {
		if _, err := v.e.arena.Bytes(v.r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Release returns the view's memory to the arena. Releasing a view twice
// is a stale access.
func (v *U32View) Release() error {
	return v.e.arena.Free(v.r)
}

// ExtractSet copies the members of a set into the arena, in ascending order,
// and returns a view of them.
func (e *Engine) ExtractSet(h SetHandle) (*U32View, error) {
	n, err := e.SetPopulation(h)
	if err != nil {
		return nil, err
	}
	r, err := e.arena.Alloc(4 * n)
	if err != nil {
		return nil, err
	}
	var chunk [64]uint32
	after, at := Invalid, 0
	for at < n {
		written, _, err := e.SetNextMany(h, after, chunk[:], len(chunk))
		if err != nil {
			_ = e.arena.Free(r)
			return nil, err
		}
		if written == 0 {
			break
		}
		for _, x := range chunk[:written] {
			if err := e.arena.PutUint32(r, at, x); err != nil {
				_ = e.arena.Free(r)
				return nil, err
			}
			at++
		}
		after = chunk[written-1]
	}
	tracer().Debugf("extracted %d values into arena %v", at, r)
	return &U32View{e: e, r: r, n: at}, nil
}

// ByteView is a read-only view of bytes in the engine's arena, with the
// same borrowing rules as U32View.
type ByteView struct {
	e *Engine
	r arena.Region
}

// Len returns the number of bytes of the view.
func (v *ByteView) Len() int {
	return v.r.Len()
}

// At returns the i-th byte.
func (v *ByteView) At(i int) (byte, error) {
	b, err := v.e.arena.Bytes(v.r)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(b) {
		return 0, core.Error(core.EINVALID, "index %d out of view range [0…%d)", i, len(b))
	}
	return b[i], nil
}

// Copy returns the bytes of the view in a slice owned by the caller.
func (v *ByteView) Copy() ([]byte, error) {
	b, err := v.e.arena.Bytes(v.r)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Release returns the view's memory to the arena.
func (v *ByteView) Release() error {
	return v.e.arena.Free(v.r)
}

// BlobData copies the bytes of a blob into the arena and returns a view of
// them.
func (e *Engine) BlobData(h BlobHandle) (*ByteView, error) {
	blob, err := e.blobs.Resolve(h)
	if err != nil {
		return nil, err
	}
	r, err := e.arena.Alloc(blob.Len())
	if err != nil {
		return nil, err
	}
	mem, err := e.arena.Bytes(r)
	if err != nil {
		return nil, err
	}
	copy(mem, blob.Bytes())
	return &ByteView{e: e, r: r}, nil
}

// Reclaim resets the engine's arena. Every outstanding view becomes stale.
func (e *Engine) Reclaim() {
	tracer().Debugf("reclaiming arena with %d live regions", e.arena.Live())
	e.arena.Reset()
}
