package serialize

import (
	"bytes"
	"slices"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

// Tables without glyph references, which are copied unchanged.
var passthroughTables = []string{"name", "cvt ", "fpgm", "prep", "gasp"}

type config struct {
	verify bool
	keep   []otface.Tag
}

// Option configures Subset.
type Option func(*config)

// Verify makes Subset re-parse its output with two independent sfnt parsers,
// golang.org/x/image/font/sfnt and github.com/go-text/typesetting/font. The
// number of glyphs and the glyph of every retained code-point must match the
// plan.
func Verify(on bool) Option {
	return func(c *config) {
		c.verify = on
	}
}

// KeepTables copies additional tables unchanged into the output. The tables
// must not contain glyph ids, otherwise the output font is inconsistent.
func KeepTables(tags ...otface.Tag) Option {
	return func(c *config) {
		c.keep = append(c.keep, tags...)
	}
}

// Subset writes a font binary containing the glyphs retained by plan,
// renumbered. The face must be the one the plan was created for. On failure
// Subset returns no data and an error with code core.ESUBSET, or
// core.ESTALE if the face has been destroyed.
func Subset(face *otface.Face, plan *subset.Plan, opts ...Option) ([]byte, error) {
	if plan == nil {
		return nil, core.Error(core.EINVALID, "no subset plan")
	}
	if face == nil {
		face = plan.Face()
	}
	if !face.Valid() {
		return nil, core.Error(core.ESTALE, "cannot subset destroyed face")
	}
	if face != plan.Face() {
		return nil, core.Error(core.EINVALID, "plan has been created for a different face")
	}
	var conf config
	for _, opt := range opts {
		opt(&conf)
	}
	if !face.IsTrueType() {
		return nil, core.Error(core.ESUBSET, "only fonts with TrueType outlines can be subset")
	}
	if plan.NumGlyphs() <= 1 {
		return nil, core.Error(core.ESUBSET, "no glyphs retained besides .notdef")
	}
	tables := newTableSet()
	glyf, loca, long, err := buildGlyf(face, plan)
	if err != nil {
		return nil, err
	}
	tables.put(otface.T("glyf"), glyf)
	tables.put(otface.T("loca"), loca)
	head, err := buildHead(face, long)
	if err != nil {
		return nil, err
	}
	tables.put(otface.T("head"), head)
	maxp, err := buildMaxp(face, plan)
	if err != nil {
		return nil, err
	}
	tables.put(otface.T("maxp"), maxp)
	hhea, hmtx, err := buildHMetrics(face, plan)
	if err != nil {
		return nil, err
	}
	tables.put(otface.T("hhea"), hhea)
	tables.put(otface.T("hmtx"), hmtx)
	tables.put(otface.T("cmap"), buildCMap(plan))
	tables.put(otface.T("post"), buildPost(face, plan))
	if os2 := buildOS2(face, plan); os2 != nil {
		tables.put(otface.T("OS/2"), os2)
	}
	if kern := buildKern(face, plan); kern != nil {
		tables.put(otface.T("kern"), kern)
	}
	if gsub := buildGSUB(face, plan); gsub != nil {
		tables.put(otface.T("GSUB"), gsub)
	}
	keep := slices.Clone(conf.keep)
	for _, t := range passthroughTables {
		keep = append(keep, otface.T(t))
	}
	for _, tag := range keep {
		if data := face.Table(tag); data != nil && !tables.has(tag) {
			tables.put(tag, bytes.Clone(data))
		}
	}
	for _, tag := range face.TableTags() {
		if !tables.has(tag) {
			tracer().Infof("table %s dropped", tag)
		}
	}
	out := tables.write(0x00010000)
	tracer().Infof("subset font has %d glyphs, %d tables, %d bytes",
		plan.NumGlyphs(), len(tables.tags()), len(out))
	if conf.verify {
		if err := verify(out, plan); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// verify parses a subset font and checks it against plan.
func verify(data []byte, plan *subset.Plan) error {
	f, err := sfnt.Parse(data)
	if err != nil {
		tracer().Errorf("subset font does not parse: %v", err)
		return core.WrapError(err, core.ESUBSET, "subset font does not parse")
	}
	if f.NumGlyphs() != plan.NumGlyphs() {
		return core.Error(core.ESUBSET, "subset font has %d glyphs, expected %d",
			f.NumGlyphs(), plan.NumGlyphs())
	}
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		tracer().Errorf("subset font is rejected by go-text: %v", err)
		return core.WrapError(err, core.ESUBSET, "subset font does not parse")
	}
	var buf sfnt.Buffer
	var mismatch error
	plan.CodePoints(func(r rune, old otface.GlyphIndex) {
		if mismatch != nil {
			return
		}
		want, _ := plan.NewGlyph(old)
		if g, err := f.GlyphIndex(&buf, r); err != nil || uint32(g) != uint32(want) {
			mismatch = core.Error(core.ESUBSET, "cmap maps %U to glyph %d, expected %d", r, g, want)
			return
		}
		if g, ok := face.NominalGlyph(r); !ok || uint32(g) != uint32(want) {
			mismatch = core.Error(core.ESUBSET, "cmap maps %U to glyph %d for go-text, expected %d", r, g, want)
		}
	})
	if mismatch != nil {
		tracer().Errorf("subset font: %v", mismatch)
	}
	return mismatch
}
