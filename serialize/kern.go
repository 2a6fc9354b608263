package serialize

import (
	"slices"

	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

type kernPair struct {
	left, right uint16
	value       int16
}

// buildKern filters the pairs of horizontal format 0 subtables of an
// OpenType kern table and merges them into a single subtable. Other
// subtables and Apple kern tables are dropped. The result is nil if no
// pair survives.
func buildKern(face *otface.Face, plan *subset.Plan) []byte {
	kern := face.Table(otface.T("kern"))
	if len(kern) < 4 || getU16(kern, 0) != 0 {
		return nil
	}
	seen := make(map[uint32]bool)
	var pairs []kernPair
	nTables := int(getU16(kern, 2))
	for i, pos := 0, 4; i < nTables && pos+6 <= len(kern); i++ {
		length := int(getU16(kern, pos+2))
		coverage := getU16(kern, pos+4)
		if length < 6 || pos+length > len(kern) {
			tracer().Infof("kern subtable %d has invalid length", i)
			break
		}
		if coverage != 0x0001 {
			tracer().Debugf("kern subtable %d with coverage %#04x dropped", i, coverage)
			pos += length
			continue
		}
		n := int(getU16(kern, pos+6))
		for j := 0; j < n; j++ {
			at := pos + 14 + 6*j
			if at+6 > pos+length {
				break
			}
			l, lok := plan.NewGlyph(otface.GlyphIndex(getU16(kern, at)))
			r, rok := plan.NewGlyph(otface.GlyphIndex(getU16(kern, at+2)))
			key := uint32(l)<<16 | uint32(r)
			if !lok || !rok || seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, kernPair{uint16(l), uint16(r), int16(getU16(kern, at+4))})
		}
		pos += length
	}
	if len(pairs) == 0 {
		return nil
	}
	const maxPairs = (0xFFFF - 14) / 6
	if len(pairs) > maxPairs {
		tracer().Infof("kern: %d pairs exceed subtable capacity, kern table dropped", len(pairs))
		return nil
	}
	slices.SortFunc(pairs, func(a, b kernPair) int {
		return int(uint32(a.left)<<16|uint32(a.right)) - int(uint32(b.left)<<16|uint32(b.right))
	})
	entrySelector := 0
	for 1<<(entrySelector+1) <= len(pairs) {
		entrySelector++
	}
	searchRange := 6 * (1 << entrySelector)
	var out buffer
	out.u16(0)
	out.u16(1)
	out.u16(0) // subtable version
	out.u16(uint16(14 + 6*len(pairs)))
	out.u16(0x0001)
	out.u16(uint16(len(pairs)))
	out.u16(uint16(searchRange))
	out.u16(uint16(entrySelector))
	out.u16(uint16(6*len(pairs) - searchRange))
	for _, p := range pairs {
		out.u16(p.left)
		out.u16(p.right)
		out.i16(p.value)
	}
	tracer().Debugf("kern: %d pairs retained", len(pairs))
	return out
}
