package subset

import (
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/npillmayer/otsubset/intset"
	"github.com/npillmayer/otsubset/otface"
)

// Plan is the frozen result of a closure: the mapping of retained glyphs to
// their new ids, plus everything the serializer needs to know about the
// request. A plan is immutable.
type Plan struct {
	face      *otface.Face
	glyphMap  *intset.Map         // old → new
	retained  []otface.GlyphIndex // new → old
	flags     Flags
	features  []otface.Tag
	codepoint *treemap.Map // rune (as int) → old glyph, ordered by code-point
	uvs       []otface.UVSMapping
}

// Face returns the face the plan was created for.
func (p *Plan) Face() *otface.Face {
	return p.face
}

// GlyphMap returns a copy of the old-to-new glyph id mapping.
func (p *Plan) GlyphMap() *intset.Map {
	return p.glyphMap.Copy()
}

// NumGlyphs returns the number of retained glyphs.
func (p *Plan) NumGlyphs() int {
	return len(p.retained)
}

// NewGlyph returns the new id of old glyph g, if g is retained.
func (p *Plan) NewGlyph(g otface.GlyphIndex) (otface.GlyphIndex, bool) {
	n, ok := p.glyphMap.Get(uint32(g))
	return otface.GlyphIndex(n), ok
}

// OldGlyph returns the original id of the glyph with new id n.
func (p *Plan) OldGlyph(n otface.GlyphIndex) otface.GlyphIndex {
	return p.retained[n]
}

// Retained returns the original ids of the retained glyphs, ordered by new id.
func (p *Plan) Retained() []otface.GlyphIndex {
	return append([]otface.GlyphIndex(nil), p.retained...)
}

// Flags returns the flags the plan was created with.
func (p *Plan) Flags() Flags {
	return p.flags
}

// Features returns the layout features the plan was created with, nil
// meaning all.
func (p *Plan) Features() []otface.Tag {
	return p.features
}

// CodePoints calls fn for every retained code-point, in ascending order,
// with its original glyph.
func (p *Plan) CodePoints(fn func(r rune, g otface.GlyphIndex)) {
	it := p.codepoint.Iterator()
	for it.Next() {
		fn(rune(it.Key().(int)), it.Value().(otface.GlyphIndex))
	}
}

// NumCodePoints returns the number of retained code-points.
func (p *Plan) NumCodePoints() int {
	return p.codepoint.Size()
}

// Variations returns the retained variation sequences, with original glyph
// ids.
func (p *Plan) Variations() []otface.UVSMapping {
	return append([]otface.UVSMapping(nil), p.uvs...)
}

func (p *Plan) String() string {
	return fmt.Sprintf("plan[%d glyphs, %d code-points, flags=%s]",
		len(p.retained), p.codepoint.Size(), p.flags)
}
