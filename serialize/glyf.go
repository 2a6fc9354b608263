package serialize

import (
	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

// buildGlyf writes the glyf and loca tables for the retained glyphs, in the
// order of their new ids. Component references of composite glyphs are
// rewritten to new ids.
func buildGlyf(face *otface.Face, plan *subset.Plan) (glyf, loca []byte, long bool, err error) {
	n := plan.NumGlyphs()
	offsets := make([]uint32, 0, n+1)
	var out buffer
	for _, old := range plan.Retained() {
		offsets = append(offsets, uint32(len(out)))
		data, err := face.GlyphData(old)
		if err != nil {
			return nil, nil, false, core.WrapError(err, core.ESUBSET, "cannot read glyph %d", old)
		}
		if len(data) == 0 {
			continue
		}
		at := len(out)
		out = append(out, data...)
		err = otface.WalkComponents(data, func(pos int, c otface.GlyphIndex) {
			nc, ok := plan.NewGlyph(c)
			if !ok {
				tracer().Infof("component %d of glyph %d not retained", c, old)
			}
			putU16(out, at+pos, uint16(nc))
		})
		if err != nil {
			return nil, nil, false, core.WrapError(err, core.ESUBSET, "composite glyph %d", old)
		}
		out.pad4()
	}
	offsets = append(offsets, uint32(len(out)))
	long = len(out) > 0x1FFFE
	var lbuf buffer
	for _, off := range offsets {
		if long {
			lbuf.u32(off)
		} else {
			lbuf.u16(uint16(off / 2))
		}
	}
	tracer().Debugf("glyf: %d glyphs in %d bytes, long loca = %v", n, len(out), long)
	return out, lbuf, long, nil
}
