package serialize

import (
	"bytes"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

// buildHead copies the head table, setting the loca format. The checksum
// adjustment is computed when the font is assembled.
func buildHead(face *otface.Face, longLoca bool) ([]byte, error) {
	head := bytes.Clone(face.Table(otface.T("head")))
	if len(head) < 54 {
		return nil, core.Error(core.ESUBSET, "head table too short")
	}
	putU32(head, 8, 0)
	if longLoca {
		putU16(head, 50, 1)
	} else {
		putU16(head, 50, 0)
	}
	return head, nil
}

// buildMaxp copies the maxp table with the new number of glyphs.
func buildMaxp(face *otface.Face, plan *subset.Plan) ([]byte, error) {
	maxp := bytes.Clone(face.Table(otface.T("maxp")))
	if len(maxp) < 6 {
		return nil, core.Error(core.ESUBSET, "maxp table too short")
	}
	putU16(maxp, 4, uint16(plan.NumGlyphs()))
	return maxp, nil
}

// buildHMetrics writes the hmtx table and patches the hhea table. Trailing
// glyphs with the same advance width share the last long metric.
func buildHMetrics(face *otface.Face, plan *subset.Plan) (hhea, hmtx []byte, err error) {
	hhea = bytes.Clone(face.Table(otface.T("hhea")))
	if len(hhea) < 36 {
		return nil, nil, core.Error(core.ESUBSET, "hhea table too short")
	}
	retained := plan.Retained()
	n := len(retained)
	adv := make([]uint16, n)
	lsb := make([]int16, n)
	var maxAdv uint16
	for i, old := range retained {
		adv[i], lsb[i] = face.HMetrics(old)
		maxAdv = max(maxAdv, adv[i])
	}
	numLong := n
	for numLong > 1 && adv[numLong-1] == adv[numLong-2] {
		numLong--
	}
	var out buffer
	for i := 0; i < n; i++ {
		if i < numLong {
			out.u16(adv[i])
		}
		out.i16(lsb[i])
	}
	putU16(hhea, 10, maxAdv)
	putU16(hhea, 34, uint16(numLong))
	tracer().Debugf("hmtx: %d long metrics for %d glyphs", numLong, n)
	return hhea, out, nil
}
