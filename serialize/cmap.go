package serialize

import (
	"slices"

	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

type cmapEntry struct {
	r rune
	g uint16
}

// maxFormat4Segments is the number of segments, including the final 0xFFFF
// segment, which fit into the 16-bit length of a format 4 subtable.
const maxFormat4Segments = (0xFFFF - 16) / 8

// buildCMap writes a character map for the retained code-points: a format 4
// subtable for the BMP, a format 12 subtable if supplementary code-points
// are retained, and a format 14 subtable for retained variation sequences.
// If the BMP mappings need more segments than a format 4 subtable can hold,
// the format 4 subtable is cut short and the format 12 subtable carries
// all mappings.
func buildCMap(plan *subset.Plan) []byte {
	var entries []cmapEntry
	plan.CodePoints(func(r rune, old otface.GlyphIndex) {
		if g, ok := plan.NewGlyph(old); ok {
			entries = append(entries, cmapEntry{r, uint16(g)})
		}
	})
	full := len(entries) > 0 && entries[len(entries)-1].r > 0xFFFF
	segs := format4Segments(entries)
	if len(segs) > maxFormat4Segments {
		tracer().Infof("cmap: %d BMP segments exceed format 4, adding format 12", len(segs))
		segs = append(segs[:maxFormat4Segments-1], segs[len(segs)-1])
		full = true
	}
	type subtable struct {
		platform, encoding uint16
		data               []byte
	}
	var subs []subtable
	if uvs := cmapFormat14(plan); uvs != nil {
		subs = append(subs, subtable{0, 5, uvs})
	}
	subs = append(subs, subtable{3, 1, cmapFormat4(segs)})
	if full {
		subs = append(subs, subtable{3, 10, cmapFormat12(entries)})
	}
	var out buffer
	out.u16(0)
	out.u16(uint16(len(subs)))
	offset := 4 + 8*len(subs)
	for _, sub := range subs {
		out.u16(sub.platform)
		out.u16(sub.encoding)
		out.u32(uint32(offset))
		offset += len(sub.data)
	}
	for _, sub := range subs {
		out = append(out, sub.data...)
	}
	tracer().Debugf("cmap: %d code-points, %d subtables", len(entries), len(subs))
	return out
}

// segment4 is a run of consecutive code-points mapped to consecutive glyphs,
// addressed with idDelta only.
type segment4 struct {
	start, end uint16
	delta      uint16
}

// format4Segments collects the segments of the BMP code-points of entries,
// terminated by the mandatory 0xFFFF segment.
func format4Segments(entries []cmapEntry) []segment4 {
	var segs []segment4
	for _, e := range entries {
		if e.r >= 0xFFFF {
			break
		}
		c := uint16(e.r)
		delta := e.g - c
		if k := len(segs) - 1; k >= 0 && segs[k].end+1 == c && segs[k].delta == delta {
			segs[k].end = c
			continue
		}
		segs = append(segs, segment4{c, c, delta})
	}
	return append(segs, segment4{0xFFFF, 0xFFFF, 1})
}

// cmapFormat4 encodes a segment mapping subtable. segs must not hold more
// than maxFormat4Segments segments.
func cmapFormat4(segs []segment4) []byte {
	segX2 := 2 * len(segs)
	entrySelector := 0
	for 1<<(entrySelector+1) <= len(segs) {
		entrySelector++
	}
	searchRange := 2 * (1 << entrySelector)
	var out buffer
	out.u16(4)
	out.u16(uint16(16 + 4*segX2))
	out.u16(0) // language
	out.u16(uint16(segX2))
	out.u16(uint16(searchRange))
	out.u16(uint16(entrySelector))
	out.u16(uint16(segX2 - searchRange))
	for _, s := range segs {
		out.u16(s.end)
	}
	out.u16(0) // reservedPad
	for _, s := range segs {
		out.u16(s.start)
	}
	for _, s := range segs {
		out.u16(s.delta)
	}
	for range segs {
		out.u16(0) // idRangeOffset
	}
	return out
}

// cmapFormat12 builds a segmented coverage subtable for all code-points.
func cmapFormat12(entries []cmapEntry) []byte {
	type group struct {
		start, end rune
		glyph      uint16
	}
	var groups []group
	for _, e := range entries {
		if k := len(groups) - 1; k >= 0 && groups[k].end+1 == e.r &&
			rune(groups[k].glyph)+(e.r-groups[k].start) == rune(e.g) {
			groups[k].end = e.r
			continue
		}
		groups = append(groups, group{e.r, e.r, e.g})
	}
	var out buffer
	out.u16(12)
	out.u16(0)
	out.u32(uint32(16 + 12*len(groups)))
	out.u32(0) // language
	out.u32(uint32(len(groups)))
	for _, g := range groups {
		out.u32(uint32(g.start))
		out.u32(uint32(g.end))
		out.u32(uint32(g.glyph))
	}
	return out
}

// cmapFormat14 builds a variation sequence subtable with non-default
// mappings only. It returns nil if the plan retains no variation sequences.
func cmapFormat14(plan *subset.Plan) []byte {
	bySelector := make(map[rune][]cmapEntry)
	for _, uvs := range plan.Variations() {
		g, ok := plan.NewGlyph(uvs.Glyph)
		if !ok {
			continue
		}
		bySelector[uvs.Selector] = append(bySelector[uvs.Selector], cmapEntry{uvs.Base, uint16(g)})
	}
	if len(bySelector) == 0 {
		return nil
	}
	selectors := make([]rune, 0, len(bySelector))
	for s := range bySelector {
		selectors = append(selectors, s)
	}
	slices.Sort(selectors)
	var out, tables buffer
	headerLen := 10 + 11*len(selectors)
	out.u16(14)
	out.u32(0) // patched below
	out.u32(uint32(len(selectors)))
	for _, s := range selectors {
		maps := bySelector[s]
		slices.SortFunc(maps, func(a, b cmapEntry) int { return int(a.r - b.r) })
		maps = slices.CompactFunc(maps, func(a, b cmapEntry) bool { return a.r == b.r })
		out.u24(uint32(s))
		out.u32(0) // defaultUVSOffset
		out.u32(uint32(headerLen + len(tables)))
		tables.u32(uint32(len(maps)))
		for _, m := range maps {
			tables.u24(uint32(m.r))
			tables.u16(m.g)
		}
	}
	out = append(out, tables...)
	putU32(out, 2, uint32(len(out)))
	return out
}
