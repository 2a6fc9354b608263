package subset

import (
	"github.com/emirpasic/gods/maps/treemap"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/intset"
	"github.com/npillmayer/otsubset/layout"
	"github.com/npillmayer/otsubset/otface"
)

// LayoutEngine is the collaborator which knows about a font's substitution
// rules and glyph structure.
type LayoutEngine interface {
	// SubstitutionTargets returns glyphs g may be substituted by, given the
	// glyphs for which closed is true.
	SubstitutionTargets(g otface.GlyphIndex, features []otface.Tag,
		closed func(otface.GlyphIndex) bool) []otface.GlyphIndex
	// CompositeComponents returns the direct components of composite glyph g.
	CompositeComponents(g otface.GlyphIndex) []otface.GlyphIndex
}

var _ LayoutEngine = (*layout.Engine)(nil)

// DefaultMaxCompositeDepth bounds the nesting of composite glyphs.
const DefaultMaxCompositeDepth = 64

type config struct {
	engine   LayoutEngine
	maxDepth int
}

// Option configures CreatePlan.
type Option func(*config)

// WithLayoutEngine sets the layout collaborator. Without this option, a
// layout.Engine for the face is used.
func WithLayoutEngine(le LayoutEngine) Option {
	return func(c *config) {
		c.engine = le
	}
}

// WithMaxCompositeDepth bounds the nesting depth of composite glyphs.
func WithMaxCompositeDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// CreatePlan computes the closure of input over face and returns the
// resulting plan.
//
// CreatePlan does not modify face or input and may be called repeatedly,
// each call producing an independent plan. If the closure retains nothing
// but the placeholder glyph, CreatePlan returns an empty-closure error and
// no plan.
func CreatePlan(face *otface.Face, input *Input, opts ...Option) (*Plan, error) {
	if face == nil {
		return nil, core.Error(core.EMALFORMED, "cannot create plan without a face")
	}
	if !face.Valid() {
		return nil, core.Error(core.ESTALE, "cannot create plan for destroyed face")
	}
	if input == nil {
		return nil, core.Error(core.EINVALID, "subset input is nil")
	}
	conf := config{maxDepth: DefaultMaxCompositeDepth}
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.engine == nil {
		conf.engine = layout.NewEngine(face)
	}
	numGlyphs := face.NumGlyphs()
	glyphs := &intset.Set{}
	glyphs.Add(uint32(otface.NotDef))
	codepoints, variations := seed(face, input, glyphs)
	tracer().Debugf("closure seeded with %d glyphs from %d glyph ids and %d code-points",
		glyphs.Population(), input.glyphs.Population(), input.unicodes.Population())
	if !input.flags.Has(FlagNoLayoutClosure) {
		closeOverLayout(conf.engine, numGlyphs, input.Features(), glyphs)
	}
	closeOverComposites(conf.engine, numGlyphs, conf.maxDepth, glyphs)
	if glyphs.Population() <= 1 {
		tracer().Infof("closure retains only .notdef")
		return nil, core.Error(core.EEMPTY,
			"selection resolves to no glyphs besides .notdef")
	}
	plan := &Plan{
		face:      face,
		glyphMap:  intset.NewMap(),
		retained:  make([]otface.GlyphIndex, 0, glyphs.Population()),
		flags:     input.flags,
		features:  input.Features(),
		codepoint: codepoints,
		uvs:       variations,
	}
	for g := range glyphs.All() {
		plan.glyphMap.Set(g, uint32(len(plan.retained)))
		plan.retained = append(plan.retained, otface.GlyphIndex(g))
	}
	tracer().Infof("closure retains %d of %d glyphs", len(plan.retained), numGlyphs)
	return plan, nil
}

// seed adds the requested glyphs and the glyphs of requested code-points to
// glyphs. It returns the map of retained code-points and the retained
// variation sequences.
func seed(face *otface.Face, input *Input, glyphs *intset.Set) (*treemap.Map, []otface.UVSMapping) {
	numGlyphs := face.NumGlyphs()
	for g := range input.glyphs.All() {
		if g >= uint32(numGlyphs) {
			tracer().Debugf("dropping glyph id %d, font has %d glyphs", g, numGlyphs)
			continue
		}
		glyphs.Add(g)
	}
	codepoints := treemap.NewWithIntComparator()
	for c := range input.unicodes.All() {
		g, ok := face.GlyphIndex(rune(c))
		if !ok {
			continue
		}
		glyphs.Add(uint32(g))
		codepoints.Put(int(c), g)
	}
	// Variation sequences: both the base character and the selector have
	// to be requested.
	var variations []otface.UVSMapping
	for _, uvs := range face.VariationGlyphs() {
		if int(uvs.Glyph) < numGlyphs &&
			input.unicodes.Contains(uint32(uvs.Base)) &&
			input.unicodes.Contains(uint32(uvs.Selector)) {
			glyphs.Add(uint32(uvs.Glyph))
			variations = append(variations, uvs)
		}
	}
	return codepoints, variations
}

// closeOverLayout adds substitution targets until no new glyph shows up.
// Every pass adds at least one glyph, so there are at most numGlyphs passes.
func closeOverLayout(le LayoutEngine, numGlyphs int, features []otface.Tag, glyphs *intset.Set) {
	closed := func(g otface.GlyphIndex) bool {
		return glyphs.Contains(uint32(g))
	}
	for pass := 1; pass <= numGlyphs; pass++ {
		added := 0
		for _, g := range glyphs.Values() {
			for _, t := range le.SubstitutionTargets(otface.GlyphIndex(g), features, closed) {
				if int(t) < numGlyphs && !glyphs.Contains(uint32(t)) {
					glyphs.Add(uint32(t))
					added++
				}
			}
		}
		tracer().Debugf("layout closure pass %d added %d glyphs", pass, added)
		if added == 0 {
			return
		}
	}
}

// closeOverComposites adds the components of composite glyphs, transitively.
func closeOverComposites(le LayoutEngine, numGlyphs, maxDepth int, glyphs *intset.Set) {
	type item struct {
		g     otface.GlyphIndex
		depth int
	}
	todo := make([]item, 0, glyphs.Population())
	for g := range glyphs.All() {
		todo = append(todo, item{otface.GlyphIndex(g), 0})
	}
	for len(todo) > 0 {
		it := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		comps := le.CompositeComponents(it.g)
		if len(comps) > 0 && it.depth >= maxDepth {
			tracer().Infof("composite glyph %d nested deeper than %d, components ignored", it.g, maxDepth)
			continue
		}
		for _, c := range comps {
			if int(c) >= numGlyphs || glyphs.Contains(uint32(c)) {
				continue
			}
			glyphs.Add(uint32(c))
			todo = append(todo, item{c, it.depth + 1})
		}
	}
}
