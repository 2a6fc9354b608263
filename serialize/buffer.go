package serialize

import (
	"encoding/binary"
	"errors"
)

// buffer collects big-endian font data.
type buffer []byte

func (b *buffer) u16(v uint16) { *b = binary.BigEndian.AppendUint16(*b, v) }
func (b *buffer) i16(v int16)  { b.u16(uint16(v)) }
func (b *buffer) u24(v uint32) { *b = append(*b, byte(v>>16), byte(v>>8), byte(v)) }
func (b *buffer) u32(v uint32) { *b = binary.BigEndian.AppendUint32(*b, v) }

func (b *buffer) glyphs(gs []uint16) {
	for _, g := range gs {
		b.u16(g)
	}
}

func (b *buffer) pad4() {
	for len(*b)%4 != 0 {
		*b = append(*b, 0)
	}
}

func putU16(b []byte, at int, v uint16) { binary.BigEndian.PutUint16(b[at:], v) }
func putU32(b []byte, at int, v uint32) { binary.BigEndian.PutUint32(b[at:], v) }

func getU16(b []byte, at int) uint16 {
	if at+2 > len(b) {
		return 0
	}
	return binary.BigEndian.Uint16(b[at:])
}

func getU32(b []byte, at int) uint32 {
	if at+4 > len(b) {
		return 0
	}
	return binary.BigEndian.Uint32(b[at:])
}

// errOffsetOverflow is returned when a sub-table lies beyond the reach of
// a 16-bit offset.
var errOffsetOverflow = errors.New("offset exceeds 16 bits")

// record is an OpenType structure with 16-bit offsets to sub-structures,
// which are laid out after the header in the order they have been linked.
type record struct {
	head  buffer
	links []link
}

type link struct {
	at    int
	child []byte
}

// offset reserves an offset field pointing to child. A nil child results
// in a NULL offset.
func (r *record) offset(child []byte) {
	if child != nil {
		r.links = append(r.links, link{len(r.head), child})
	}
	r.head.u16(0)
}

func (r *record) bytes() ([]byte, error) {
	out := buffer(append([]byte(nil), r.head...))
	for _, l := range r.links {
		if len(out) > 0xFFFF {
			return nil, errOffsetOverflow
		}
		putU16(out, l.at, uint16(len(out)))
		out = append(out, l.child...)
	}
	return out, nil
}

// checksum computes the OpenType table checksum of data.
func checksum(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		var word [4]byte
		copy(word[:], data[i:])
		sum += binary.BigEndian.Uint32(word[:])
	}
	return sum
}
