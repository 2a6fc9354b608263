package layout

import (
	"github.com/npillmayer/otsubset/internal/binseg"
	"github.com/npillmayer/otsubset/otface"
)

// Compiled forms of GSUB subtables, answering the closure question
// "which glyphs may g turn into, given the glyphs in the closed set?".

type membership func(otface.GlyphIndex) bool

// closer is implemented by every compiled subtable.
type closer interface {
	// covers is true if g may start a match of the subtable.
	covers(g otface.GlyphIndex) bool
	// close emits all glyphs which g may be substituted by.
	close(e *Engine, g otface.GlyphIndex, closed membership, emit func(otface.GlyphIndex), depth int)
}

// SeqLookup is a sequence lookup record of a contextual subtable: apply
// lookup LookupIndex at position SequenceIndex of the input sequence.
type SeqLookup struct {
	SequenceIndex uint16
	LookupIndex   uint16
}

func parseSeqLookups(b binarySegm, at, n int) ([]SeqLookup, error) {
	if _, err := b.View(at, 4*n); err != nil {
		return nil, err
	}
	recs := make([]SeqLookup, n)
	for i := range recs {
		recs[i] = SeqLookup{b.U16(at + 4*i), b.U16(at + 4*i + 2)}
	}
	return recs, nil
}

// --- Types 1 to 3 ----------------------------------------------------------

type singleCloser struct {
	m map[otface.GlyphIndex]otface.GlyphIndex
}

func (c singleCloser) covers(g otface.GlyphIndex) bool {
	_, ok := c.m[g]
	return ok
}

func (c singleCloser) close(_ *Engine, g otface.GlyphIndex, _ membership, emit func(otface.GlyphIndex), _ int) {
	if s, ok := c.m[g]; ok {
		emit(s)
	}
}

type sequenceCloser struct {
	m map[otface.GlyphIndex][]otface.GlyphIndex
}

func (c sequenceCloser) covers(g otface.GlyphIndex) bool {
	_, ok := c.m[g]
	return ok
}

func (c sequenceCloser) close(_ *Engine, g otface.GlyphIndex, _ membership, emit func(otface.GlyphIndex), _ int) {
	for _, s := range c.m[g] {
		emit(s)
	}
}

// --- Type 4 ----------------------------------------------------------------

type ligatureCloser struct {
	m map[otface.GlyphIndex][]Ligature // by first component
}

func (c ligatureCloser) covers(g otface.GlyphIndex) bool {
	_, ok := c.m[g]
	return ok
}

// A ligature fires only if every component is in the closed set.
func (c ligatureCloser) close(_ *Engine, g otface.GlyphIndex, closed membership, emit func(otface.GlyphIndex), _ int) {
	for _, lig := range c.m[g] {
		all := true
		for _, comp := range lig.Components[1:] {
			if !closed(comp) {
				all = false
				break
			}
		}
		if all {
			emit(lig.Glyph)
		}
	}
}

// --- Types 5 and 6 ---------------------------------------------------------

// glyphRule is a rule of contextual format 1 or chained contextual format 1.
type glyphRule struct {
	backtrack, input, lookahead []otface.GlyphIndex // input without first glyph
	records                     []SeqLookup
}

type glyphContextCloser struct {
	cov      Coverage
	ruleSets [][]glyphRule // by coverage index
}

func (c glyphContextCloser) covers(g otface.GlyphIndex) bool {
	_, ok := c.cov.Index(g)
	return ok
}

func (c glyphContextCloser) close(e *Engine, g otface.GlyphIndex, closed membership, emit func(otface.GlyphIndex), depth int) {
	inx, ok := c.cov.Index(g)
	if !ok || inx >= len(c.ruleSets) {
		return
	}
	allClosed := func(gs []otface.GlyphIndex) bool {
		for _, x := range gs {
			if !closed(x) {
				return false
			}
		}
		return true
	}
	for _, rule := range c.ruleSets[inx] {
		if !allClosed(rule.backtrack) || !allClosed(rule.input) || !allClosed(rule.lookahead) {
			continue
		}
		for _, rec := range rule.records {
			at := g
			if rec.SequenceIndex > 0 {
				if int(rec.SequenceIndex) > len(rule.input) {
					continue
				}
				at = rule.input[rec.SequenceIndex-1]
			}
			e.applyNested(int(rec.LookupIndex), at, closed, emit, depth)
		}
	}
}

// classRule is a rule of contextual format 2 or chained contextual format 2.
type classRule struct {
	backtrack, input, lookahead []uint16 // input without first class
	records                     []SeqLookup
}

type classContextCloser struct {
	cov          Coverage
	backtrackDef ClassDef
	inputDef     ClassDef
	lookaheadDef ClassDef
	ruleSets     [][]classRule // by input class
}

func (c classContextCloser) covers(g otface.GlyphIndex) bool {
	_, ok := c.cov.Index(g)
	return ok
}

func (c classContextCloser) close(e *Engine, g otface.GlyphIndex, closed membership, emit func(otface.GlyphIndex), depth int) {
	if _, ok := c.cov.Index(g); !ok {
		return
	}
	cls := int(c.inputDef.Class(g))
	if cls >= len(c.ruleSets) {
		return
	}
	satisfiable := func(cd ClassDef, classes []uint16) bool {
		for _, k := range classes {
			if !e.classIntersects(cd, k, closed) {
				return false
			}
		}
		return true
	}
	for _, rule := range c.ruleSets[cls] {
		if !satisfiable(c.backtrackDef, rule.backtrack) ||
			!satisfiable(c.inputDef, rule.input) ||
			!satisfiable(c.lookaheadDef, rule.lookahead) {
			continue
		}
		for _, rec := range rule.records {
			if rec.SequenceIndex == 0 {
				e.applyNested(int(rec.LookupIndex), g, closed, emit, depth)
				continue
			}
			if int(rec.SequenceIndex) > len(rule.input) {
				continue
			}
			k := rule.input[rec.SequenceIndex-1]
			e.classMembers(c.inputDef, k, closed, func(h otface.GlyphIndex) {
				e.applyNested(int(rec.LookupIndex), h, closed, emit, depth)
			})
		}
	}
}

type coverageContextCloser struct {
	backtrack, input, lookahead []Coverage // input includes the first position
	records                     []SeqLookup
}

func (c coverageContextCloser) covers(g otface.GlyphIndex) bool {
	if len(c.input) == 0 {
		return false
	}
	_, ok := c.input[0].Index(g)
	return ok
}

// A format 3 rule may only match if every coverage intersects the closed set.
func (c coverageContextCloser) close(e *Engine, g otface.GlyphIndex, closed membership, emit func(otface.GlyphIndex), depth int) {
	if !c.covers(g) {
		return
	}
	for _, seq := range [][]Coverage{c.backtrack, c.input[1:], c.lookahead} {
		for _, cov := range seq {
			if !cov.Intersects(closed) {
				return
			}
		}
	}
	for _, rec := range c.records {
		if rec.SequenceIndex == 0 {
			e.applyNested(int(rec.LookupIndex), g, closed, emit, depth)
			continue
		}
		if int(rec.SequenceIndex) >= len(c.input) {
			continue
		}
		c.input[rec.SequenceIndex].Glyphs(func(_ int, h otface.GlyphIndex) bool {
			if closed(h) {
				e.applyNested(int(rec.LookupIndex), h, closed, emit, depth)
			}
			return true
		})
	}
}

// --- Type 8 ----------------------------------------------------------------

type reverseCloser struct {
	cov         Coverage
	backtrack   []Coverage
	lookahead   []Coverage
	substitutes []otface.GlyphIndex
}

func (c reverseCloser) covers(g otface.GlyphIndex) bool {
	_, ok := c.cov.Index(g)
	return ok
}

func (c reverseCloser) close(_ *Engine, g otface.GlyphIndex, closed membership, emit func(otface.GlyphIndex), _ int) {
	inx, ok := c.cov.Index(g)
	if !ok || inx >= len(c.substitutes) {
		return
	}
	for _, seq := range [][]Coverage{c.backtrack, c.lookahead} {
		for _, cov := range seq {
			if !cov.Intersects(closed) {
				return
			}
		}
	}
	emit(c.substitutes[inx])
}

// --- Compilation -----------------------------------------------------------

func compile(sub Subtable) (closer, error) {
	b := binarySegm(sub.Data)
	switch sub.Type {
	case GSubSingle:
		m, err := sub.SingleMapping()
		return singleCloser{m}, err
	case GSubMultiple, GSubAlternate:
		m, err := sub.SequenceMapping()
		return sequenceCloser{m}, err
	case GSubLigature:
		ligs, err := sub.Ligatures()
		if err != nil {
			return nil, err
		}
		m := make(map[otface.GlyphIndex][]Ligature)
		for _, l := range ligs {
			m[l.Components[0]] = append(m[l.Components[0]], l)
		}
		return ligatureCloser{m}, nil
	case GSubContext:
		switch sub.Format {
		case 1:
			return compileGlyphContext(b, false)
		case 2:
			return compileClassContext(b, false)
		case 3:
			return compileCoverageContext(b, false)
		}
	case GSubChainingContext:
		switch sub.Format {
		case 1:
			return compileGlyphContext(b, true)
		case 2:
			return compileClassContext(b, true)
		case 3:
			return compileCoverageContext(b, true)
		}
	case GSubReverseChaining:
		return compileReverse(b)
	}
	return nil, errGSUB("lookup type %d, format %d not supported", sub.Type, sub.Format)
}

// ruleReader reads the variable length fields of (chained) sequence rules.
type ruleReader struct {
	b   binarySegm
	pos int
	err error
}

func (r *ruleReader) u16() uint16 {
	if r.pos+2 > len(r.b) {
		r.err = binseg.ErrBounds
		return 0
	}
	v := r.b.U16(r.pos)
	r.pos += 2
	return v
}

func (r *ruleReader) values(n int) []uint16 {
	vs := make([]uint16, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		vs = append(vs, r.u16())
	}
	return vs
}

func (r *ruleReader) records() []SeqLookup {
	n := int(r.u16())
	if r.err != nil {
		return nil
	}
	recs, err := parseSeqLookups(r.b, r.pos, n)
	if err != nil {
		r.err = err
	}
	r.pos += 4 * n
	return recs
}

// readRule reads a (chained) sequence rule, either with glyphs or with
// classes as values.
func readRule(b binarySegm, chained bool) (backtrack, input, lookahead []uint16, recs []SeqLookup, err error) {
	r := &ruleReader{b: b}
	if chained {
		backtrack = r.values(int(r.u16()))
		n := int(r.u16())
		if n > 0 {
			input = r.values(n - 1)
		}
		lookahead = r.values(int(r.u16()))
		recs = r.records()
	} else {
		n := int(r.u16())
		m := int(r.u16())
		if n > 0 {
			input = r.values(n - 1)
		}
		if r.err == nil {
			recs, r.err = parseSeqLookups(b, r.pos, m)
		}
	}
	return backtrack, input, lookahead, recs, r.err
}

// ruleSets follows count offsets at position at to rule sets and reads their
// rules. NULL offsets yield empty rule sets.
func ruleSets[R any](b binarySegm, at int, chained bool, mk func(bt, in, la []uint16, recs []SeqLookup) R) ([][]R, error) {
	n := int(b.U16(at))
	if _, err := b.View(at+2, 2*n); err != nil {
		return nil, err
	}
	sets := make([][]R, n)
	for i := range sets {
		if b.U16(at+2+2*i) == 0 {
			continue
		}
		set, err := b.Link(at + 2 + 2*i)
		if err != nil {
			return nil, err
		}
		cnt := int(set.U16(0))
		for j := 0; j < cnt; j++ {
			rule, err := set.Link(2 + 2*j)
			if err != nil {
				return nil, err
			}
			bt, in, la, recs, err := readRule(rule, chained)
			if err != nil {
				return nil, err
			}
			sets[i] = append(sets[i], mk(bt, in, la, recs))
		}
	}
	return sets, nil
}

func toGlyphs(vs []uint16) []otface.GlyphIndex {
	gs := make([]otface.GlyphIndex, len(vs))
	for i, v := range vs {
		gs[i] = otface.GlyphIndex(v)
	}
	return gs
}

func compileGlyphContext(b binarySegm, chained bool) (closer, error) {
	cov := Subtable{Data: b}.Coverage()
	if cov.invalid {
		return nil, errGSUB("context format 1: bad coverage")
	}
	sets, err := ruleSets(b, 4, chained, func(bt, in, la []uint16, recs []SeqLookup) glyphRule {
		return glyphRule{toGlyphs(bt), toGlyphs(in), toGlyphs(la), recs}
	})
	if err != nil {
		return nil, errGSUB("context format 1: %v", err)
	}
	return glyphContextCloser{cov: cov, ruleSets: sets}, nil
}

func compileClassContext(b binarySegm, chained bool) (closer, error) {
	cov := Subtable{Data: b}.Coverage()
	if cov.invalid {
		return nil, errGSUB("context format 2: bad coverage")
	}
	c := classContextCloser{cov: cov}
	classDef := func(at int) ClassDef {
		if cd, err := b.Link(at); err == nil {
			return parseClassDef(cd)
		}
		return ClassDef{}
	}
	at := 6
	if chained {
		c.backtrackDef, c.inputDef, c.lookaheadDef = classDef(4), classDef(6), classDef(8)
		at = 10
	} else {
		c.inputDef = classDef(4)
	}
	sets, err := ruleSets(b, at, chained, func(bt, in, la []uint16, recs []SeqLookup) classRule {
		return classRule{bt, in, la, recs}
	})
	if err != nil {
		return nil, errGSUB("context format 2: %v", err)
	}
	c.ruleSets = sets
	return c, nil
}

// coverages reads a count followed by count coverage offsets at pos.
func coverages(b binarySegm, pos int) ([]Coverage, int, error) {
	n := int(b.U16(pos))
	if _, err := b.View(pos+2, 2*n); err != nil {
		return nil, pos, err
	}
	covs := make([]Coverage, n)
	for i := range covs {
		c, err := b.Link(pos + 2 + 2*i)
		if err != nil {
			return nil, pos, err
		}
		if covs[i] = parseCoverage(c); covs[i].invalid {
			return nil, pos, binseg.ErrBounds
		}
	}
	return covs, pos + 2 + 2*n, nil
}

func compileCoverageContext(b binarySegm, chained bool) (closer, error) {
	c := coverageContextCloser{}
	var err error
	if chained {
		pos := 2
		if c.backtrack, pos, err = coverages(b, pos); err == nil {
			if c.input, pos, err = coverages(b, pos); err == nil {
				if c.lookahead, pos, err = coverages(b, pos); err == nil {
					c.records, err = parseSeqLookups(b, pos+2, int(b.U16(pos)))
				}
			}
		}
	} else {
		n, m := int(b.U16(2)), int(b.U16(4))
		c.input = make([]Coverage, n)
		for i := 0; i < n && err == nil; i++ {
			var cv binarySegm
			if cv, err = b.Link(6 + 2*i); err == nil {
				if c.input[i] = parseCoverage(cv); c.input[i].invalid {
					err = binseg.ErrBounds
				}
			}
		}
		if err == nil {
			c.records, err = parseSeqLookups(b, 6+2*n, m)
		}
	}
	if err != nil {
		return nil, errGSUB("context format 3: %v", err)
	}
	if len(c.input) == 0 {
		return nil, errGSUB("context format 3: empty input sequence")
	}
	return c, nil
}

func compileReverse(b binarySegm) (closer, error) {
	c := reverseCloser{cov: Subtable{Data: b}.Coverage()}
	if c.cov.invalid {
		return nil, errGSUB("reverse chaining: bad coverage")
	}
	var err error
	pos := 4
	if c.backtrack, pos, err = coverages(b, pos); err == nil {
		if c.lookahead, pos, err = coverages(b, pos); err == nil {
			c.substitutes, err = glyphsAt(b, pos+2, int(b.U16(pos)))
		}
	}
	if err != nil {
		return nil, errGSUB("reverse chaining: %v", err)
	}
	return c, nil
}
