package layout

import (
	"slices"
	"strings"

	"github.com/npillmayer/otsubset/otface"
)

// DefaultMaxNesting bounds the nesting of lookups called from contextual
// lookups.
const DefaultMaxNesting = 8

// Engine answers closure queries about the layout rules and glyph structure
// of a face. An Engine is read-only after creation and does not retain any
// state between queries, apart from caches.
type Engine struct {
	face       *otface.Face
	gsub       *GSUB
	lookups    [][]closer // compiled subtables by lookup index
	numGlyphs  int
	maxNesting int
	active     map[string][]int // lookup indices by feature selection
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxNesting sets the maximum nesting depth of contextual lookups.
func WithMaxNesting(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxNesting = n
		}
	}
}

// NewEngine creates a layout engine for face. A damaged GSUB table is
// reported to the trace and otherwise treated as absent, as are individual
// damaged subtables.
func NewEngine(face *otface.Face, opts ...Option) *Engine {
	e := &Engine{
		face:       face,
		numGlyphs:  face.NumGlyphs(),
		maxNesting: DefaultMaxNesting,
		active:     make(map[string][]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	data := face.Table(otface.T("GSUB"))
	if data == nil {
		return e
	}
	gsub, err := ParseGSUB(data)
	if err != nil {
		tracer().Errorf("ignoring GSUB table: %v", err)
		return e
	}
	e.gsub = gsub
	e.lookups = make([][]closer, len(gsub.Lookups))
	for i, lk := range gsub.Lookups {
		for j, sub := range lk.Subtables {
			c, err := compile(sub)
			if err != nil {
				tracer().Infof("GSUB lookup %d, subtable %d skipped: %v", i, j, err)
				continue
			}
			e.lookups[i] = append(e.lookups[i], c)
		}
	}
	return e
}

// GSUB returns the parsed GSUB table of the face, or nil.
func (e *Engine) GSUB() *GSUB {
	return e.gsub
}

// Lookups returns the indices of lookups reachable from the features
// selected by tags. A nil tag list selects all features.
func (e *Engine) Lookups(tags []otface.Tag) []int {
	if e.gsub == nil {
		return nil
	}
	key := "*"
	if tags != nil {
		var sb strings.Builder
		for _, t := range tags {
			sb.WriteString(t.String())
		}
		key = sb.String()
	}
	if inx, ok := e.active[key]; ok {
		return inx
	}
	var include func(otface.Tag) bool
	if tags != nil {
		include = func(t otface.Tag) bool { return slices.Contains(tags, t) }
	}
	inx := e.gsub.LookupsForFeatures(include)
	e.active[key] = inx
	return inx
}

// SubstitutionTargets returns the glyphs which glyph g may be substituted by
// through the lookups of the selected features. closed tells which glyphs
// are already known to be part of the closure; it decides whether
// ligatures and contextual rules may fire. The result may contain
// duplicates and glyphs already closed.
func (e *Engine) SubstitutionTargets(g otface.GlyphIndex, features []otface.Tag,
	closed func(otface.GlyphIndex) bool) []otface.GlyphIndex {
	//
	var targets []otface.GlyphIndex
	emit := func(t otface.GlyphIndex) {
		targets = append(targets, t)
	}
	for _, l := range e.Lookups(features) {
		e.apply(l, g, closed, emit, 0)
	}
	return targets
}

// CompositeComponents returns the glyphs composite glyph g is made of.
func (e *Engine) CompositeComponents(g otface.GlyphIndex) []otface.GlyphIndex {
	comps, err := e.face.Components(g)
	if err != nil {
		tracer().Infof("cannot read components of glyph %d: %v", g, err)
		return nil
	}
	return comps
}

func (e *Engine) apply(l int, g otface.GlyphIndex, closed membership, emit func(otface.GlyphIndex), depth int) {
	if l < 0 || l >= len(e.lookups) {
		return
	}
	for _, c := range e.lookups[l] {
		if c.covers(g) {
			c.close(e, g, closed, emit, depth)
		}
	}
}

// applyNested applies a lookup called from a contextual rule.
func (e *Engine) applyNested(l int, g otface.GlyphIndex, closed membership, emit func(otface.GlyphIndex), depth int) {
	if depth+1 > e.maxNesting {
		tracer().Infof("maximum lookup nesting depth %d reached", e.maxNesting)
		return
	}
	e.apply(l, g, closed, emit, depth+1)
}

// classMembers calls fn for every closed glyph of class k.
func (e *Engine) classMembers(cd ClassDef, k uint16, closed membership, fn func(otface.GlyphIndex)) {
	for g := 0; g < e.numGlyphs; g++ {
		if gi := otface.GlyphIndex(g); cd.Class(gi) == k && closed(gi) {
			fn(gi)
		}
	}
}

// classIntersects is true if at least one closed glyph is of class k.
func (e *Engine) classIntersects(cd ClassDef, k uint16, closed membership) bool {
	found := false
	for g := 0; g < e.numGlyphs && !found; g++ {
		gi := otface.GlyphIndex(g)
		found = cd.Class(gi) == k && closed(gi)
	}
	return found
}
