package serialize

import (
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

const postHeaderLen = 32

// buildPost writes a post table of format 2 with the names of the retained
// glyphs if the plan asks for glyph names and the font has them. Otherwise
// a post table of format 3, without names, is written.
func buildPost(face *otface.Face, plan *subset.Plan) []byte {
	header := make(buffer, postHeaderLen)
	copy(header, face.Table(otface.T("post")))
	if !plan.Flags().Has(subset.FlagGlyphNames) || !face.HasGlyphNames() {
		putU32(header, 0, 0x00030000)
		return header
	}
	putU32(header, 0, 0x00020000)
	standard := make(map[string]int, len(otface.MacGlyphNames))
	for i, name := range otface.MacGlyphNames {
		standard[name] = i
	}
	out := header
	out.u16(uint16(plan.NumGlyphs()))
	var custom buffer
	customCount := 0
	for _, old := range plan.Retained() {
		name, _ := face.GlyphName(old)
		if inx, ok := standard[name]; ok {
			out.u16(uint16(inx))
			continue
		}
		if len(name) > 255 {
			name = name[:255]
		}
		out.u16(uint16(len(otface.MacGlyphNames) + customCount))
		custom = append(custom, byte(len(name)))
		custom = append(custom, name...)
		customCount++
	}
	tracer().Debugf("post: %d glyph names, %d custom", plan.NumGlyphs(), customCount)
	return append(out, custom...)
}
