package subset

import (
	"strings"

	"github.com/npillmayer/otsubset/core"
)

// Flags control the subsetting process.
type Flags uint32

const (
	// FlagDefault is the empty set of flags.
	FlagDefault Flags = 0
	// FlagGlyphNames keeps glyph names (post table format 2) in the output.
	FlagGlyphNames Flags = 0x80
	// FlagNoLayoutClosure skips the expansion of the glyph set through
	// substitution rules. Composite glyphs are always expanded.
	FlagNoLayoutClosure Flags = 0x200

	knownFlags = FlagGlyphNames | FlagNoLayoutClosure
)

var flagTokens = map[string]Flags{
	"--glyph-names":       FlagGlyphNames,
	"glyph-names":         FlagGlyphNames,
	"emit_glyph_names":    FlagGlyphNames,
	"--no-layout-closure": FlagNoLayoutClosure,
	"no-layout-closure":   FlagNoLayoutClosure,
	"no_layout_closure":   FlagNoLayoutClosure,
}

// MaskFlags converts a raw bitmask to Flags. Unknown bits are cleared.
func MaskFlags(raw uint32) Flags {
	return Flags(raw) & knownFlags
}

// ParseFlag translates a flag token, e.g. "--glyph-names" or
// "emit_glyph_names". Unknown tokens are rejected.
func ParseFlag(token string) (Flags, error) {
	if f, ok := flagTokens[strings.TrimSpace(token)]; ok {
		return f, nil
	}
	return FlagDefault, core.Error(core.EINVALID, "unknown subset flag %q", token)
}

// LenientFlag translates a flag token like ParseFlag does, but maps unknown
// tokens to FlagDefault, i.e. ignores them.
func LenientFlag(token string) Flags {
	f, err := ParseFlag(token)
	if err != nil {
		tracer().Infof("ignoring unknown subset flag %q", token)
	}
	return f
}

// ParseFlags translates a list of tokens and combines the flags.
func ParseFlags(tokens ...string) (Flags, error) {
	var flags Flags
	for _, t := range tokens {
		f, err := ParseFlag(t)
		if err != nil {
			return FlagDefault, err
		}
		flags |= f
	}
	return flags, nil
}

// Has is true if all flags of x are set in f.
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

func (f Flags) String() string {
	if f == FlagDefault {
		return "default"
	}
	var names []string
	if f.Has(FlagGlyphNames) {
		names = append(names, "emit_glyph_names")
	}
	if f.Has(FlagNoLayoutClosure) {
		names = append(names, "no_layout_closure")
	}
	return strings.Join(names, "|")
}
