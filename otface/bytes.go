package otface

import (
	"fmt"

	"github.com/npillmayer/otsubset/internal/binseg"
)

// binarySegm is a segment of font data.
type binarySegm = binseg.Segm

// --- Tags and glyphs -------------------------------------------------------

// Tag is defined by the OpenType specification as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
// If b is shorter or longer, it will be silently extended or cut as appropriate
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append(b, []byte{0, 0, 0, 0}[:4-len(b)]...)
	}
	return Tag(binseg.U32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(binseg.U32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// NotDef is the placeholder glyph, present in every font.
const NotDef GlyphIndex = 0

func (g GlyphIndex) String() string {
	return fmt.Sprintf("#%d", uint16(g))
}
