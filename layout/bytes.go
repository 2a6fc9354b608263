package layout

import (
	"github.com/npillmayer/otsubset/internal/binseg"
	"github.com/npillmayer/otsubset/otface"
)

type binarySegm = binseg.Segm

// glyphsAt reads n glyph indices starting at position at.
func glyphsAt(b binarySegm, at, n int) ([]otface.GlyphIndex, error) {
	if _, err := b.View(at, 2*n); err != nil {
		return nil, err
	}
	gs := make([]otface.GlyphIndex, n)
	for i := range gs {
		gs[i] = otface.GlyphIndex(b.U16(at + 2*i))
	}
	return gs, nil
}

// --- Coverage --------------------------------------------------------------

// Coverage tables specify all the glyphs affected by a substitution.
// Format 1 lists glyph indices individually, format 2 lists ranges of glyphs.
type Coverage struct {
	format  uint16
	glyphs  []otface.GlyphIndex // format 1
	ranges  []rangeRecord       // format 2
	invalid bool
}

type rangeRecord struct {
	start, end otface.GlyphIndex
	index      uint16 // coverage index of start
}

func parseCoverage(b binarySegm) Coverage {
	format, count := b.U16(0), int(b.U16(2))
	switch format {
	case 1:
		gs, err := glyphsAt(b, 4, count)
		if err != nil {
			tracer().Errorf("coverage format 1 extends beyond bounds")
			return Coverage{invalid: true}
		}
		return Coverage{format: 1, glyphs: gs}
	case 2:
		if _, err := b.View(4, 6*count); err != nil {
			tracer().Errorf("coverage format 2 extends beyond bounds")
			return Coverage{invalid: true}
		}
		rs := make([]rangeRecord, count)
		for i := range rs {
			rs[i] = rangeRecord{
				start: otface.GlyphIndex(b.U16(4 + 6*i)),
				end:   otface.GlyphIndex(b.U16(6 + 6*i)),
				index: b.U16(8 + 6*i),
			}
		}
		return Coverage{format: 2, ranges: rs}
	}
	tracer().Errorf("unknown coverage format %d", format)
	return Coverage{invalid: true}
}

// Index returns the coverage index of glyph g, if g is covered.
func (c Coverage) Index(g otface.GlyphIndex) (int, bool) {
	switch c.format {
	case 1:
		for i, j := 0, len(c.glyphs); i < j; {
			h := i + (j-i)/2
			if c.glyphs[h] < g {
				i = h + 1
			} else if c.glyphs[h] > g {
				j = h
			} else {
				return h, true
			}
		}
	case 2:
		for _, r := range c.ranges {
			if g >= r.start && g <= r.end {
				return int(r.index) + int(g-r.start), true
			}
		}
	}
	return 0, false
}

// Glyphs calls fn for every covered glyph with its coverage index, in order.
// If fn returns false, iteration stops.
func (c Coverage) Glyphs(fn func(inx int, g otface.GlyphIndex) bool) {
	switch c.format {
	case 1:
		for i, g := range c.glyphs {
			if !fn(i, g) {
				return
			}
		}
	case 2:
		for _, r := range c.ranges {
			for g := int(r.start); g <= int(r.end); g++ {
				if !fn(int(r.index)+g-int(r.start), otface.GlyphIndex(g)) {
					return
				}
			}
		}
	}
}

// Intersects is true if at least one covered glyph satisfies member.
func (c Coverage) Intersects(member func(otface.GlyphIndex) bool) bool {
	found := false
	c.Glyphs(func(_ int, g otface.GlyphIndex) bool {
		found = member(g)
		return !found
	})
	return found
}

// --- Class definitions -----------------------------------------------------

// ClassDef assigns glyphs to classes. Glyphs not listed are in class 0.
type ClassDef struct {
	format  uint16
	start   otface.GlyphIndex
	classes []uint16 // format 1
	ranges  []classRange
}

type classRange struct {
	start, end otface.GlyphIndex
	class      uint16
}

func parseClassDef(b binarySegm) ClassDef {
	switch b.U16(0) {
	case 1:
		n := int(b.U16(4))
		if _, err := b.View(6, 2*n); err != nil {
			return ClassDef{}
		}
		cd := ClassDef{format: 1, start: otface.GlyphIndex(b.U16(2)), classes: make([]uint16, n)}
		for i := range cd.classes {
			cd.classes[i] = b.U16(6 + 2*i)
		}
		return cd
	case 2:
		n := int(b.U16(2))
		if _, err := b.View(4, 6*n); err != nil {
			return ClassDef{}
		}
		cd := ClassDef{format: 2, ranges: make([]classRange, n)}
		for i := range cd.ranges {
			cd.ranges[i] = classRange{
				start: otface.GlyphIndex(b.U16(4 + 6*i)),
				end:   otface.GlyphIndex(b.U16(6 + 6*i)),
				class: b.U16(8 + 6*i),
			}
		}
		return cd
	}
	return ClassDef{}
}

// Class returns the class of glyph g.
func (cd ClassDef) Class(g otface.GlyphIndex) uint16 {
	switch cd.format {
	case 1:
		if g >= cd.start && int(g-cd.start) < len(cd.classes) {
			return cd.classes[g-cd.start]
		}
	case 2:
		for _, r := range cd.ranges {
			if g >= r.start && g <= r.end {
				return r.class
			}
		}
	}
	return 0
}
