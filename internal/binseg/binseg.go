// Package binseg reads big-endian values from segments of font data.
package binseg

import "errors"

// ErrBounds is returned for reads beyond the end of a segment.
var ErrBounds = errors.New("buffer bounds error")

func U16(b []byte) uint16 {
	_ = b[1] // bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])
}

func U24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func U32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Segm is a segment of font data. Offsets are relative to its start.
type Segm []byte

// View returns the n bytes at offset as a sub-slice of b.
func (b Segm) View(offset, n int) (Segm, error) {
	if offset < 0 || n < 0 || offset+n > len(b) {
		return nil, ErrBounds
	}
	return b[offset : offset+n], nil
}

// Uint16 returns the uint16 at offset i.
func (b Segm) Uint16(i int) (uint16, error) {
	v, err := b.View(i, 2)
	if err != nil {
		return 0, err
	}
	return U16(v), nil
}

// Uint32 returns the uint32 at offset i.
func (b Segm) Uint32(i int) (uint32, error) {
	v, err := b.View(i, 4)
	if err != nil {
		return 0, err
	}
	return U32(v), nil
}

// U16 is like Uint16, but returns 0 for out-of-bounds access.
func (b Segm) U16(i int) uint16 {
	v, _ := b.Uint16(i)
	return v
}

// U32 is like Uint32, but returns 0 for out-of-bounds access.
func (b Segm) U32(i int) uint32 {
	v, _ := b.Uint32(i)
	return v
}

// Link follows the 16-bit offset stored at position at. A NULL offset is an
// error.
func (b Segm) Link(at int) (Segm, error) {
	off, err := b.Uint16(at)
	if err != nil {
		return nil, err
	}
	if off == 0 || int(off) >= len(b) {
		return nil, ErrBounds
	}
	return b[off:], nil
}
