/*
Package subset computes the glyph closure of a subsetting request.

Clients describe the request with an Input: glyph ids, code-points and flags.
CreatePlan resolves the code-points through the font's character map, then
expands the glyph set until it is closed under the font's substitution rules
and composite glyph references, and finally assigns new, contiguous glyph
ids. The result is an immutable Plan, which a serializer turns into a font
binary.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package subset

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.subset.closure'
func tracer() tracing.Trace {
	return tracing.Select("font.subset.closure")
}
