package otface

// HMetrics returns the advance width and left side bearing of glyph g.
// Glyphs beyond numberOfHMetrics share the last advance width.
func (f *Face) HMetrics(g GlyphIndex) (advance uint16, lsb int16) {
	hmtx := binarySegm(f.Table(T("hmtx")))
	n := f.numHMetrics
	if n == 0 {
		return 0, 0
	}
	if int(g) < n {
		return hmtx.U16(4 * int(g)), int16(hmtx.U16(4*int(g) + 2))
	}
	advance = hmtx.U16(4 * (n - 1))
	lsb = int16(hmtx.U16(4*n + 2*(int(g)-n)))
	return
}

// NumHMetrics returns numberOfHMetrics from the hhea table.
func (f *Face) NumHMetrics() int {
	return f.numHMetrics
}

// UnitsPerEm returns the design units per em from the head table.
func (f *Face) UnitsPerEm() uint16 {
	return binarySegm(f.Table(T("head"))).U16(18)
}

// LongLoca is true if the font uses 32-bit loca offsets.
func (f *Face) LongLoca() bool {
	return f.loca.long
}

// --- post table ------------------------------------------------------------

// GlyphName returns the PostScript name of glyph g, if the font carries
// glyph names (post table format 2).
func (f *Face) GlyphName(g GlyphIndex) (string, bool) {
	names := f.glyphNames()
	if int(g) >= len(names) || names[g] == "" {
		return "", false
	}
	return names[g], true
}

// HasGlyphNames is true if the font's post table is format 2.
func (f *Face) HasGlyphNames() bool {
	return len(f.glyphNames()) > 0
}

func (f *Face) glyphNames() []string {
	if f.names != nil || f.namesParsed {
		return f.names
	}
	f.namesParsed = true
	post := binarySegm(f.Table(T("post")))
	if post.U32(0) != 0x00020000 || len(post) < 34 {
		return nil
	}
	n := int(post.U16(32))
	if 34+2*n > len(post) {
		tracer().Infof("post table too short for %d glyph name indices", n)
		return nil
	}
	var custom []string
	for pos := 34 + 2*n; pos < len(post); {
		l := int(post[pos])
		if pos+1+l > len(post) {
			break
		}
		custom = append(custom, string(post[pos+1:pos+1+l]))
		pos += 1 + l
	}
	names := make([]string, n)
	for g := 0; g < n; g++ {
		inx := int(post.U16(34 + 2*g))
		if inx < len(MacGlyphNames) {
			names[g] = MacGlyphNames[inx]
		} else if inx-len(MacGlyphNames) < len(custom) {
			names[g] = custom[inx-len(MacGlyphNames)]
		}
	}
	f.names = names
	return names
}

// MacGlyphNames is the standard Macintosh ordering of 258 glyph names, which
// post table format 2 refers to by index.
var MacGlyphNames = []string{
	".notdef", ".null", "nonmarkingreturn", "space", "exclam", "quotedbl", "numbersign",
	"dollar", "percent", "ampersand", "quotesingle", "parenleft", "parenright", "asterisk",
	"plus", "comma", "hyphen", "period", "slash", "zero", "one", "two", "three", "four",
	"five", "six", "seven", "eight", "nine", "colon", "semicolon", "less", "equal",
	"greater", "question", "at", "A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K",
	"L", "M", "N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	"bracketleft", "backslash", "bracketright", "asciicircum", "underscore", "grave",
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q",
	"r", "s", "t", "u", "v", "w", "x", "y", "z", "braceleft", "bar", "braceright",
	"asciitilde", "Adieresis", "Aring", "Ccedilla", "Eacute", "Ntilde", "Odieresis",
	"Udieresis", "aacute", "agrave", "acircumflex", "adieresis", "atilde", "aring",
	"ccedilla", "eacute", "egrave", "ecircumflex", "edieresis", "iacute", "igrave",
	"icircumflex", "idieresis", "ntilde", "oacute", "ograve", "ocircumflex", "odieresis",
	"otilde", "uacute", "ugrave", "ucircumflex", "udieresis", "dagger", "degree", "cent",
	"sterling", "section", "bullet", "paragraph", "germandbls", "registered", "copyright",
	"trademark", "acute", "dieresis", "notequal", "AE", "Oslash", "infinity", "plusminus",
	"lessequal", "greaterequal", "yen", "mu", "partialdiff", "summation", "product", "pi",
	"integral", "ordfeminine", "ordmasculine", "Omega", "ae", "oslash", "questiondown",
	"exclamdown", "logicalnot", "radical", "florin", "approxequal", "Delta",
	"guillemotleft", "guillemotright", "ellipsis", "nonbreakingspace", "Agrave", "Atilde",
	"Otilde", "OE", "oe", "endash", "emdash", "quotedblleft", "quotedblright", "quoteleft",
	"quoteright", "divide", "lozenge", "ydieresis", "Ydieresis", "fraction", "currency",
	"guilsinglleft", "guilsinglright", "fi", "fl", "daggerdbl", "periodcentered",
	"quotesinglbase", "quotedblbase", "perthousand", "Acircumflex", "Ecircumflex",
	"Aacute", "Edieresis", "Egrave", "Iacute", "Icircumflex", "Idieresis", "Igrave",
	"Oacute", "Ocircumflex", "apple", "Ograve", "Uacute", "Ucircumflex", "Ugrave",
	"dotlessi", "circumflex", "tilde", "macron", "breve", "dotaccent", "ring", "cedilla",
	"hungarumlaut", "ogonek", "caron", "Lslash", "lslash", "Scaron", "scaron", "Zcaron",
	"zcaron", "brokenbar", "Eth", "eth", "Yacute", "yacute", "Thorn", "thorn", "minus",
	"multiply", "onesuperior", "twosuperior", "threesuperior", "onehalf", "onequarter",
	"threequarters", "franc", "Gbreve", "gbreve", "Idotaccent", "Scedilla", "scedilla",
	"Cacute", "cacute", "Ccaron", "ccaron", "dcroat",
}
