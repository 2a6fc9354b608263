package otface

import (
	"fmt"
	"sort"

	"github.com/npillmayer/otsubset/internal/binseg"
)

// CMap maps code-points to glyphs. A cmap table may contain more than one
// lookup table, but we only instantiate the most appropriate one, plus the
// variation-sequence subtable (format 14) if present.
type CMap struct {
	index glyphIndexMap
	uvs   []UVSMapping
}

// UVSMapping is a non-default mapping of a Unicode variation sequence (a base
// character followed by a variation selector) to a glyph.
type UVSMapping struct {
	Base     rune
	Selector rune
	Glyph    GlyphIndex
}

type glyphIndexMap interface {
	Lookup(rune) GlyphIndex
}

// Lookup returns the glyph for code-point r, or 0 if r is not mapped.
func (cm *CMap) Lookup(r rune) GlyphIndex {
	if cm == nil || cm.index == nil {
		return 0
	}
	return cm.index.Lookup(r)
}

// platformEncodingWidth returns the number of bytes per character assumed by
// the given Platform ID and Platform Specific ID.
//
// Old fonts, from when Unicode meant the Basic Multilingual Plane (BMP),
// assume that 2 bytes per character is sufficient. Recent fonts support the
// full range of Unicode code points, which can take up to 4 bytes per
// character.
func platformEncodingWidth(pid, psid uint16) int {
	switch pid {
	case 0: // Unicode platform
		switch psid {
		case 3: // Unicode BMP
			return 2
		case 4, 10: // Unicode full (10 from FontForge bug)
			return 4
		}
	case 3: // Windows platform
		switch psid {
		case 1: // Unicode BMP
			return 2
		case 10: // Unicode full
			return 4
		}
	}
	return 0 // width 0 will never get selected
}

// We only support the following plaform/encoding/format combinations:
//
//	0 (Unicode)  3    4   Unicode BMP
//	0 (Unicode)  4    12  Unicode full  (10 from FontForge, error)
//	3 (Win)      1    4   Unicode BMP
//	3 (Win)      10   12  Unicode full
func supportedCmapFormat(format, pid, psid uint16) bool {
	return (pid == 0 && psid == 3 && format == 4) ||
		(pid == 0 && (psid == 4 || psid == 10) && format == 12) ||
		(pid == 3 && psid == 1 && format == 4) ||
		(pid == 3 && psid == 10 && format == 12)
}

func parseCMap(b binarySegm, offset uint32, diag *diagnostics) *CMap {
	tag := T("cmap")
	const headerSize, entrySize = 4, 8
	n, err := b.Uint16(2)
	if err != nil || len(b) < headerSize+entrySize*int(n) {
		diag.report(SeverityMajor, tag, "Header", offset, "cmap header exceeds table size")
		return &CMap{}
	}
	tracer().Debugf("font cmap has %d sub-tables in %d bytes", n, len(b))
	cm := &CMap{}
	width, format := 0, uint16(0)
	var best binarySegm
	for i := 0; i < int(n); i++ {
		rec := b[headerSize+entrySize*i:]
		pid, psid, suboff := binseg.U16(rec), binseg.U16(rec[2:]), binseg.U32(rec[4:])
		if int(suboff)+2 > len(b) {
			diag.warn(tag, offset, "sub-table %d (platform=%d, encoding=%d) out of bounds", i, pid, psid)
			continue
		}
		sub := b[suboff:]
		f := binseg.U16(sub)
		if pid == 0 && psid == 5 && f == 14 {
			uvs, err := parseCMapFormat14(sub)
			if err != nil {
				diag.warn(tag, offset+suboff, "variation sequences sub-table cannot be parsed")
				continue
			}
			cm.uvs = uvs
			continue
		}
		w := platformEncodingWidth(pid, psid)
		if w <= width || !supportedCmapFormat(f, pid, psid) {
			continue
		}
		width, format, best = w, f, sub
	}
	if width == 0 {
		diag.report(SeverityMajor, tag, "Format", offset, "no supported cmap format found")
		return cm
	}
	var e error
	switch format {
	case 4:
		cm.index, e = makeGlyphIndexFormat4(best)
	case 12:
		cm.index, e = makeGlyphIndexFormat12(best)
	}
	if e != nil {
		diag.report(SeverityMajor, tag, fmt.Sprintf("Format%d", format), offset, "%v", e)
		cm.index = nil
	}
	return cm
}

// Format 4: Segment mapping to delta values.
// This is the standard character-to-glyph-index mapping subtable for fonts that support
// only Unicode Basic Multilingual Plane characters (U+0000 to U+FFFF).
type format4GlyphIndex struct {
	entries  []cmapEntry16
	glyphIds binarySegm
}

type cmapEntry16 struct {
	end, start, delta, offset uint16
}

func (f4 format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xffff { // format 4 is for BMP code-points only
		return 0
	}
	c := uint16(r)
	N := len(f4.entries)
	i := sort.Search(N, func(k int) bool { return f4.entries[k].end >= c })
	if i == N || f4.entries[i].start > c {
		return 0
	}
	entry := &f4.entries[i]
	if entry.offset == 0 {
		return GlyphIndex(c + entry.delta)
	}
	// idRangeOffset is relative to its own position within the offset array.
	// We have sliced the sub-table into parts, so we have to convert it into an
	// index into the glyph ID array, which immediately follows the offsets.
	index := (int(entry.offset)-(N-i)*2)/2 + int(c-entry.start)
	g, err := f4.glyphIds.Uint16(index * 2)
	if err != nil || g == 0 {
		return 0
	}
	return GlyphIndex(g + entry.delta)
}

// The format's data is divided into three parts, which must occur in the following order:
//
// - A four-word header gives parameters for an optimized search of the segment list;
// - Four parallel arrays describe the segments (one segment for each contiguous range of codes);
// - A variable-length array of glyph IDs (unsigned words).
func makeGlyphIndexFormat4(b binarySegm) (glyphIndexMap, error) {
	const headerSize = 14
	if headerSize > len(b) {
		return nil, fmt.Errorf("cmap subtable bounds overflow")
	}
	size := int(binseg.U16(b[2:]))
	if size > len(b) {
		size = len(b) // some fonts in the wild get the length wrong
	}
	segCount := int(binseg.U16(b[6:]))
	if segCount&1 != 0 {
		return nil, fmt.Errorf("cmap table format 4, illegal segment count")
	}
	segCount /= 2
	if headerSize+8*segCount+2 > size {
		return nil, fmt.Errorf("cmap format 4 internal structure")
	}
	b = b[headerSize:size]
	ends := b
	starts := b[2*segCount+2:] // 2 is a padding entry in the cmap table
	deltas := starts[2*segCount:]
	offsets := deltas[2*segCount:]
	entries := make([]cmapEntry16, segCount)
	for i := range entries {
		entries[i] = cmapEntry16{
			end:    binseg.U16(ends[2*i:]),
			start:  binseg.U16(starts[2*i:]),
			delta:  binseg.U16(deltas[2*i:]),
			offset: binseg.U16(offsets[2*i:]),
		}
	}
	return format4GlyphIndex{
		entries:  entries,
		glyphIds: offsets[2*segCount:],
	}, nil
}

type cmapEntry32 struct {
	start, end, glyph uint32
}

// Each sequential map group record specifies a character range and the starting glyph ID
// mapped from the first character. Glyph IDs for subsequent characters follow in sequence.
type format12GlyphIndex struct {
	entries []cmapEntry32
}

func (f12 format12GlyphIndex) Lookup(r rune) GlyphIndex {
	c := uint32(r)
	N := len(f12.entries)
	i := sort.Search(N, func(k int) bool { return f12.entries[k].end >= c })
	if i == N || f12.entries[i].start > c {
		return 0
	}
	g := c - f12.entries[i].start + f12.entries[i].glyph
	if g > 0xffff {
		return 0
	}
	return GlyphIndex(g)
}

// Format 12 is similar to format 4 in that it defines segments for sparse representation.
// It differs, however, in that it uses 32-bit character codes.
func makeGlyphIndexFormat12(b binarySegm) (glyphIndexMap, error) {
	const headerSize = 16
	if headerSize > len(b) {
		return nil, fmt.Errorf("cmap subtable bounds overflow")
	}
	size := int(binseg.U32(b[4:]))
	if size > len(b) {
		size = len(b)
	}
	grpCount := int(binseg.U32(b[12:]))
	if 12*grpCount+headerSize > size {
		return nil, fmt.Errorf("cmap format 12 internal structure")
	}
	b = b[headerSize:size]
	entries := make([]cmapEntry32, grpCount)
	for i := range entries {
		g := b[12*i:]
		entries[i] = cmapEntry32{start: binseg.U32(g), end: binseg.U32(g[4:]), glyph: binseg.U32(g[8:])}
	}
	return format12GlyphIndex{entries: entries}, nil
}

// Format 14 specifies the Unicode Variation Sequences supported by the font.
// Only non-default UVS tables carry glyph references of their own; default
// UVS tables map to whatever the default cmap yields for the base character.
func parseCMapFormat14(b binarySegm) ([]UVSMapping, error) {
	const headerSize, recSize = 10, 11
	if len(b) < headerSize {
		return nil, binseg.ErrBounds
	}
	n := int(binseg.U32(b[6:]))
	if headerSize+recSize*n > len(b) {
		return nil, binseg.ErrBounds
	}
	var uvs []UVSMapping
	for i := 0; i < n; i++ {
		rec := b[headerSize+recSize*i:]
		selector := rune(binseg.U24(rec))
		nondef := int(binseg.U32(rec[7:]))
		if nondef == 0 {
			continue
		}
		cnt, err := b.Uint32(nondef)
		if err != nil || nondef+4+5*int(cnt) > len(b) {
			return nil, binseg.ErrBounds
		}
		for j := 0; j < int(cnt); j++ {
			m := b[nondef+4+5*j:]
			uvs = append(uvs, UVSMapping{
				Base:     rune(binseg.U24(m)),
				Selector: selector,
				Glyph:    GlyphIndex(binseg.U16(m[3:])),
			})
		}
	}
	return uvs, nil
}
