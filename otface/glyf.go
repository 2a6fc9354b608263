package otface

import (
	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/internal/binseg"
)

// Flags of composite glyph component records.
const (
	argsAreWords    = 0x0001 // ARG_1_AND_2_ARE_WORDS
	weHaveAScale    = 0x0008 // WE_HAVE_A_SCALE
	moreComponents  = 0x0020 // MORE_COMPONENTS
	weHaveXYScale   = 0x0040 // WE_HAVE_AN_X_AND_Y_SCALE
	weHaveTwoByTwo  = 0x0080 // WE_HAVE_A_TWO_BY_TWO
	glyfHeaderBytes = 10     // numberOfContours + bounding box
)

// componentRecordLength returns the size of a component record, including
// flags and glyph index, and whether more records follow.
func componentRecordLength(flags uint16) (length int, more bool) {
	length = 4 + 2
	if flags&argsAreWords != 0 {
		length += 2
	}
	if flags&weHaveAScale != 0 {
		length += 2
	} else if flags&weHaveXYScale != 0 {
		length += 4
	} else if flags&weHaveTwoByTwo != 0 {
		length += 8
	}
	more = flags&moreComponents != 0
	return
}

// IsComposite is true if glyph data describes a composite glyph, i.e. a glyph
// assembled from other glyphs.
func IsComposite(glyph []byte) bool {
	return len(glyph) >= glyfHeaderBytes && int16(binseg.U16(glyph)) < 0
}

// WalkComponents calls fn for every component of a composite glyph, passing
// the byte offset of the component's glyph index within glyph and the
// component glyph. For simple or empty glyphs WalkComponents does nothing.
//
// The serializer uses the offsets to rewrite component references in place.
func WalkComponents(glyph []byte, fn func(at int, g GlyphIndex)) error {
	if !IsComposite(glyph) {
		return nil
	}
	b := binarySegm(glyph)
	for pos, more := glyfHeaderBytes, true; more; {
		flags, err := b.Uint16(pos)
		if err != nil {
			return core.WrapError(err, core.EMALFORMED, "composite glyph truncated")
		}
		var n int
		n, more = componentRecordLength(flags)
		if pos+n > len(b) {
			return core.Error(core.EMALFORMED, "composite glyph component exceeds glyph data")
		}
		fn(pos+2, GlyphIndex(binseg.U16(b[pos+2:])))
		pos += n
	}
	return nil
}

// glyphLocations holds the loca table.
type glyphLocations struct {
	data binarySegm
	long bool
	n    int // number of glyphs
}

// location returns the start and end offsets of glyph g in the glyf table.
func (loca glyphLocations) location(g GlyphIndex) (uint32, uint32, error) {
	if int(g) >= loca.n {
		return 0, 0, core.Error(core.EINVALID, "glyph %d out of range", g)
	}
	var start, end uint32
	if loca.long {
		s, err1 := loca.data.Uint32(int(g) * 4)
		e, err2 := loca.data.Uint32(int(g)*4 + 4)
		if err1 != nil || err2 != nil {
			return 0, 0, core.Error(core.EMALFORMED, "loca table too short for glyph %d", g)
		}
		start, end = s, e
	} else {
		s, err1 := loca.data.Uint16(int(g) * 2)
		e, err2 := loca.data.Uint16(int(g)*2 + 2)
		if err1 != nil || err2 != nil {
			return 0, 0, core.Error(core.EMALFORMED, "loca table too short for glyph %d", g)
		}
		start, end = uint32(s)*2, uint32(e)*2
	}
	if end < start {
		return 0, 0, core.Error(core.EMALFORMED, "loca offsets for glyph %d not ascending", g)
	}
	return start, end, nil
}

// GlyphData returns the glyf entry of glyph g. Empty glyphs (e.g. space)
// yield an empty slice.
func (f *Face) GlyphData(g GlyphIndex) ([]byte, error) {
	if !f.IsTrueType() {
		return nil, core.Error(core.EINVALID, "font has no TrueType outlines")
	}
	start, end, err := f.loca.location(g)
	if err != nil {
		return nil, err
	}
	glyf := f.Table(T("glyf"))
	if int(end) > len(glyf) {
		return nil, core.Error(core.EMALFORMED, "glyph %d exceeds glyf table", g)
	}
	return glyf[start:end:end], nil
}

// Components returns the glyphs referenced directly by composite glyph g.
// For simple glyphs and fonts without TrueType outlines the result is empty.
func (f *Face) Components(g GlyphIndex) ([]GlyphIndex, error) {
	if !f.IsTrueType() {
		return nil, nil
	}
	data, err := f.GlyphData(g)
	if err != nil {
		return nil, err
	}
	var comps []GlyphIndex
	err = WalkComponents(data, func(_ int, c GlyphIndex) {
		comps = append(comps, c)
	})
	return comps, err
}
