/*
Package serialize writes the font binary for a subsetting plan.

Subset copies the tables of a face which survive subsetting, drops the glyphs
not retained by the plan and rewrites every glyph reference with the plan's
new glyph ids. Tables with glyph-indexed data (glyf, loca, hmtx, cmap, post,
GSUB, kern) are rebuilt; a few tables without glyph references are passed
through unchanged; everything else is dropped.

Only fonts with TrueType outlines are supported.

	plan, err := subset.CreatePlan(face, input)
	...
	font, err := serialize.Subset(face, plan, serialize.Verify(true))

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package serialize

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.subset.serialize'
func tracer() tracing.Trace {
	return tracing.Select("font.subset.serialize")
}
