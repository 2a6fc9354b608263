/*
Package otface implements the blob and face model of the subsetting engine.

A Blob is a reference counted byte buffer holding a font binary. A Face is a
parsed structural view of one font inside a blob: its table directory, glyph
count, character map and accessors for the glyph-indexed tables which the
closure and the serializer need (glyf/loca, hmtx, post).

The parser is deliberately shallow. It validates the table directory
(bounds, alignment, ordering) and the tables required to compute a subset,
and reads everything else lazily on request. Issues found while parsing are
recorded with a severity and may be inspected after parsing.

Code comments often cite passages from the OpenType specification;
see https://docs.microsoft.com/en-us/typography/opentype/spec/.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otface

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.subset.face'
func tracer() tracing.Trace {
	return tracing.Select("font.subset.face")
}
