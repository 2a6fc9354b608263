package otface

import (
	"bytes"

	"github.com/npillmayer/otsubset/core"
)

// Mode tells how a blob treats the bytes it is created from.
type Mode int

const (
	// ReadOnly blobs copy the caller's bytes; the caller keeps its buffer.
	ReadOnly Mode = iota
	// Writable blobs adopt the caller's buffer without copying. The caller
	// must not touch the buffer afterwards.
	Writable
)

func (m Mode) String() string {
	if m == Writable {
		return "writable"
	}
	return "read-only"
}

// Blob is an immutable byte buffer holding font data. Blobs are reference
// counted: every face created on a blob holds a reference, so destroying the
// creator's reference does not invalidate faces still using the blob.
type Blob struct {
	data []byte
	mode Mode
	refs int
}

// NewBlob creates a blob with a reference count of 1.
func NewBlob(data []byte, mode Mode) *Blob {
	if mode != Writable {
		data = bytes.Clone(data)
	}
	if data == nil {
		data = []byte{}
	}
	return &Blob{data: data, mode: mode, refs: 1}
}

// EmptyBlob returns a new zero-length blob.
func EmptyBlob() *Blob {
	return &Blob{data: []byte{}, refs: 1}
}

// Len returns the length of the blob's data. A destroyed blob has length 0.
func (b *Blob) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Bytes returns the blob's data. Clients must not modify it.
func (b *Blob) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Mode returns the creation mode of b.
func (b *Blob) Mode() Mode {
	return b.mode
}

// Alive is true as long as at least one reference to b is held.
func (b *Blob) Alive() bool {
	return b != nil && b.refs > 0
}

// Reference increments the reference count of b and returns b.
func (b *Blob) Reference() *Blob {
	if b.refs > 0 {
		b.refs++
	}
	return b
}

// Destroy drops one reference. When the last reference is dropped, the
// blob's data is released. Destroying a dead blob is a stale access.
func (b *Blob) Destroy() error {
	if !b.Alive() {
		return core.Error(core.ESTALE, "blob already destroyed")
	}
	b.refs--
	if b.refs == 0 {
		b.data = nil
	}
	return nil
}
