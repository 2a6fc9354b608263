package layout

import (
	"github.com/npillmayer/otsubset/otface"
)

// Decoders for the subtable formats which the serializer rewrites
// (lookup types 1 to 4).

// Ligature describes one ligature substitution: Components are replaced by
// Glyph. The first component is the covered glyph.
type Ligature struct {
	Glyph      otface.GlyphIndex
	Components []otface.GlyphIndex
}

// Coverage returns the coverage table of a subtable with a coverage offset
// at position 2 (all types except contextual format 3).
func (sub Subtable) Coverage() Coverage {
	c, err := binarySegm(sub.Data).Link(2)
	if err != nil {
		return Coverage{invalid: true}
	}
	return parseCoverage(c)
}

// SingleMapping decodes a single substitution subtable (type 1, formats 1
// and 2) into a map from covered glyphs to substitutes.
func (sub Subtable) SingleMapping() (map[otface.GlyphIndex]otface.GlyphIndex, error) {
	b := binarySegm(sub.Data)
	cov := sub.Coverage()
	if sub.Type != GSubSingle || cov.invalid {
		return nil, errGSUB("not a valid single substitution")
	}
	m := make(map[otface.GlyphIndex]otface.GlyphIndex)
	switch sub.Format {
	case 1:
		delta := b.U16(4)
		cov.Glyphs(func(_ int, g otface.GlyphIndex) bool {
			m[g] = otface.GlyphIndex(uint16(g) + delta)
			return true
		})
	case 2:
		n := int(b.U16(4))
		subst, err := glyphsAt(b, 6, n)
		if err != nil {
			return nil, errGSUB("single substitution: substitutes out of bounds")
		}
		cov.Glyphs(func(i int, g otface.GlyphIndex) bool {
			if i < n {
				m[g] = subst[i]
			}
			return true
		})
	default:
		return nil, errGSUB("single substitution: unknown format %d", sub.Format)
	}
	return m, nil
}

// SequenceMapping decodes a multiple (type 2) or alternate (type 3)
// substitution subtable into a map from covered glyphs to their sequence or
// alternate set.
func (sub Subtable) SequenceMapping() (map[otface.GlyphIndex][]otface.GlyphIndex, error) {
	b := binarySegm(sub.Data)
	cov := sub.Coverage()
	if (sub.Type != GSubMultiple && sub.Type != GSubAlternate) || sub.Format != 1 || cov.invalid {
		return nil, errGSUB("not a valid multiple/alternate substitution")
	}
	n := int(b.U16(4))
	if _, err := b.View(6, 2*n); err != nil {
		return nil, errGSUB("sequence offsets out of bounds")
	}
	m := make(map[otface.GlyphIndex][]otface.GlyphIndex)
	var err error
	cov.Glyphs(func(i int, g otface.GlyphIndex) bool {
		if i >= n {
			return false
		}
		var seq binarySegm
		if seq, err = b.Link(6 + 2*i); err != nil {
			return false
		}
		var gs []otface.GlyphIndex
		if gs, err = glyphsAt(seq, 2, int(seq.U16(0))); err != nil {
			return false
		}
		m[g] = gs
		return true
	})
	if err != nil {
		return nil, errGSUB("sequence table: %v", err)
	}
	return m, nil
}

// Ligatures decodes a ligature substitution subtable (type 4).
func (sub Subtable) Ligatures() ([]Ligature, error) {
	b := binarySegm(sub.Data)
	cov := sub.Coverage()
	if sub.Type != GSubLigature || sub.Format != 1 || cov.invalid {
		return nil, errGSUB("not a valid ligature substitution")
	}
	n := int(b.U16(4))
	if _, err := b.View(6, 2*n); err != nil {
		return nil, errGSUB("ligature set offsets out of bounds")
	}
	var ligs []Ligature
	var err error
	cov.Glyphs(func(i int, g otface.GlyphIndex) bool {
		if i >= n {
			return false
		}
		var set binarySegm
		if set, err = b.Link(6 + 2*i); err != nil {
			return false
		}
		cnt := int(set.U16(0))
		for j := 0; j < cnt; j++ {
			var lig binarySegm
			if lig, err = set.Link(2 + 2*j); err != nil {
				return false
			}
			compCount := int(lig.U16(2))
			if compCount == 0 {
				continue
			}
			var rest []otface.GlyphIndex
			if rest, err = glyphsAt(lig, 4, compCount-1); err != nil {
				return false
			}
			ligs = append(ligs, Ligature{
				Glyph:      otface.GlyphIndex(lig.U16(0)),
				Components: append([]otface.GlyphIndex{g}, rest...),
			})
		}
		return true
	})
	if err != nil {
		return nil, errGSUB("ligature table: %v", err)
	}
	return ligs, nil
}
