package serialize

import (
	"bytes"

	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

// buildOS2 copies the OS/2 table, updating the range of character indices
// to the retained code-points.
func buildOS2(face *otface.Face, plan *subset.Plan) []byte {
	os2 := bytes.Clone(face.Table(otface.T("OS/2")))
	if len(os2) < 68 {
		return os2
	}
	first, last := rune(0xFFFF), rune(0)
	plan.CodePoints(func(r rune, _ otface.GlyphIndex) {
		first = min(first, r)
		last = max(last, r)
	})
	if plan.NumCodePoints() == 0 {
		first, last = 0, 0
	}
	putU16(os2, 64, uint16(min(first, 0xFFFF)))
	putU16(os2, 66, uint16(min(last, 0xFFFF)))
	return os2
}
