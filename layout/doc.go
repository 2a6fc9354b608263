/*
Package layout reads the glyph substitution table (GSUB) of a font and
answers the questions the subsetting closure asks about it: which glyphs may
a given glyph be substituted by, given the glyphs already known to be part
of the subset, and which components make up a composite glyph.

The analysis is conservative. A contextual rule whose context cannot be
decided from a glyph set alone is assumed to possibly match, so the closure
may retain a few glyphs too many, but never too few.

# Status

Lookup types 1 to 8 of GSUB are understood. GPOS is not read, positioning
does not introduce glyphs.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package layout

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.subset.layout'
func tracer() tracing.Trace {
	return tracing.Select("font.subset.layout")
}
