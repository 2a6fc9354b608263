package subset

import (
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/npillmayer/otsubset/intset"
	"github.com/npillmayer/otsubset/otface"
)

// Input describes a subsetting request. Its sets only grow; there is no way
// to remove glyphs or code-points.
type Input struct {
	glyphs   *intset.Set
	unicodes *intset.Set
	flags    Flags
	features []otface.Tag // nil: all features
}

// NewInput creates an empty input with default flags and all layout
// features enabled.
func NewInput() *Input {
	return &Input{
		glyphs:   &intset.Set{},
		unicodes: &intset.Set{},
	}
}

// GlyphSet returns the set of requested glyph ids. Clients may add to it.
func (in *Input) GlyphSet() *intset.Set {
	return in.glyphs
}

// UnicodeSet returns the set of requested code-points. Clients may add to it.
func (in *Input) UnicodeSet() *intset.Set {
	return in.unicodes
}

// AddGlyphs adds glyph ids to the request.
func (in *Input) AddGlyphs(gs ...otface.GlyphIndex) {
	for _, g := range gs {
		in.glyphs.Add(uint32(g))
	}
}

// AddRunes adds code-points to the request.
func (in *Input) AddRunes(rs ...rune) {
	for _, r := range rs {
		if r >= 0 {
			in.unicodes.Add(uint32(r))
		}
	}
}

// SetFlags replaces the flags of the request.
func (in *Input) SetFlags(f Flags) {
	in.flags = f
}

// Flags returns the flags of the request.
func (in *Input) Flags() Flags {
	return in.flags
}

// SetFeatures restricts layout closure to the given features. Calling it
// without arguments disables all features, which is different from the
// default of using every feature in the font.
func (in *Input) SetFeatures(tags ...otface.Tag) {
	in.features = append([]otface.Tag{}, tags...)
}

// Features returns the selected layout features, nil meaning all.
func (in *Input) Features() []otface.Tag {
	if in.features == nil {
		return nil
	}
	return slices.Clone(in.features)
}

// --- Text ------------------------------------------------------------------

type textConfig struct {
	upper      bool
	lang       language.Tag
	decomposed bool
}

// TextOption configures AddText.
type TextOption func(*textConfig)

// WithUpperCase adds the upper-case variant of the text as well, using the
// case mapping rules of lang.
func WithUpperCase(lang language.Tag) TextOption {
	return func(c *textConfig) {
		c.upper = true
		c.lang = lang
	}
}

// WithDecomposed adds the canonical decomposition of the text as well,
// so that fonts composing accented characters from base and mark glyphs
// keep the parts.
func WithDecomposed() TextOption {
	return func(c *textConfig) {
		c.decomposed = true
	}
}

// AddText adds the code-points of s to the request.
func (in *Input) AddText(s string, opts ...TextOption) {
	conf := textConfig{lang: language.Und}
	for _, opt := range opts {
		opt(&conf)
	}
	variants := []string{s}
	if conf.upper {
		variants = append(variants, cases.Upper(conf.lang).String(s))
	}
	if conf.decomposed {
		for _, v := range variants {
			variants = append(variants, norm.NFD.String(v))
		}
	}
	for _, v := range variants {
		for _, r := range v {
			in.unicodes.Add(uint32(r))
		}
	}
}
