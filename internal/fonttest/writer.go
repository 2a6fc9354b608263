package fonttest

import "encoding/binary"

// w is a growable big-endian byte buffer.
type w []byte

func (b *w) u8(v uint8)   { *b = append(*b, v) }
func (b *w) u16(v uint16) { *b = binary.BigEndian.AppendUint16(*b, v) }
func (b *w) i16(v int16)  { b.u16(uint16(v)) }
func (b *w) u24(v uint32) { *b = append(*b, byte(v>>16), byte(v>>8), byte(v)) }
func (b *w) u32(v uint32) { *b = binary.BigEndian.AppendUint32(*b, v) }
func (b *w) tag(t string) { *b = append(*b, (t + "    ")[:4]...) }
func (b *w) bytes(p []byte) {
	*b = append(*b, p...)
}

// putU16 patches a 16-bit value at position at.
func (b w) putU16(at int, v uint16) { binary.BigEndian.PutUint16(b[at:], v) }

// putU32 patches a 32-bit value at position at.
func (b w) putU32(at int, v uint32) { binary.BigEndian.PutUint32(b[at:], v) }

// pad4 pads the buffer to a multiple of 4 bytes.
func (b *w) pad4() {
	for len(*b)%4 != 0 {
		*b = append(*b, 0)
	}
}

func checksum(data []byte) uint32 {
	var sum uint32
	for len(data) >= 4 {
		sum += binary.BigEndian.Uint32(data)
		data = data[4:]
	}
	if len(data) > 0 {
		var last [4]byte
		copy(last[:], data)
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}
