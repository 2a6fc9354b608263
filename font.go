/*
Package otsubset is an engine for subsetting OpenType fonts.

Given a font binary and a selection of code-points and glyph ids, the engine
computes every glyph needed to render the selection (the closure) and writes
a new font with only these glyphs, renumbered contiguously.

Clients talk to an Engine, which addresses all objects (blobs, faces, sets,
maps, subset inputs and plans) by opaque, typed handles. Handles are
checked: using a handle after it has been destroyed yields a stale-handle
error instead of reaching a recycled object. Data crossing the engine
boundary in bulk is copied through the engine's arena and handed out as
borrowed views, which have to be released.

	e := otsubset.NewEngine()
	sc := e.NewScope()
	defer sc.Close()
	blob := sc.Blob(e.CreateBlob(fontBytes, otface.ReadOnly))
	face, err := e.CreateFace(blob, 0)
	...
	in := sc.Input(e.CreateInput())
	unicodes, _ := e.InputUnicodeSet(in)
	e.SetAdd(unicodes, 'a')
	sub, err := e.SubsetOrFail(face, in)

An Engine is not safe for concurrent use. Independent engines do not share
state and may be used from different goroutines.

# Nomenclature

A "face" is one font of a font binary (a binary may hold a collection of
faces). A "blob" is a font binary, or any other chunk of bytes, owned by
the engine.

# Links

OpenType explained:
https://docs.microsoft.com/en-us/typography/opentype/

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otsubset

import (
	"os"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"

	"github.com/npillmayer/otsubset/core"
)

// tracer writes to trace with key 'font.subset'
func tracer() tracing.Trace {
	return tracing.Select("font.subset")
}

// LoadFont reads a font binary (TTF, OTF or TTC) from a file.
func LoadFont(fontfile string) ([]byte, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot read font %s", fontfile)
	}
	tracer().Debugf("loaded %d bytes from %s", len(bytez), fontfile)
	return bytez, nil
}

// FontName returns the full name of a font, as stated in its name table.
// For collections, the name of the first face is returned. If the font has
// no usable name, FontName returns an empty string.
func FontName(fbytes []byte) string {
	f, err := sfnt.Parse(fbytes)
	if err != nil {
		c, cerr := sfnt.ParseCollection(fbytes)
		if cerr != nil || c.NumFonts() == 0 {
			return ""
		}
		if f, err = c.Font(0); err != nil {
			return ""
		}
	}
	name, err := f.Name(nil, sfnt.NameIDFull)
	if err != nil {
		if name, err = f.Name(nil, sfnt.NameIDFamily); err != nil {
			return ""
		}
	}
	return name
}
