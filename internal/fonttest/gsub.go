package fonttest

import (
	"slices"
	"sort"
)

// Subtable is the binary form of a GSUB lookup subtable.
type Subtable struct {
	Type uint16
	Data []byte
}

// SeqLookup is a sequence lookup record of a contextual subtable.
type SeqLookup struct {
	SequenceIndex uint16
	LookupIndex   uint16
}

// Lig describes one ligature: Components ligate to Glyph.
type Lig struct {
	Glyph      int
	Components []int
}

// coverage builds a coverage table of format 1.
func coverage(glyphs []int) []byte {
	gs := slices.Clone(glyphs)
	slices.Sort(gs)
	gs = slices.Compact(gs)
	var b w
	b.u16(1)
	b.u16(uint16(len(gs)))
	for _, g := range gs {
		b.u16(uint16(g))
	}
	return b
}

// rangeCoverage builds a coverage table of format 2 with a single range.
func rangeCoverage(first, last int) []byte {
	var b w
	b.u16(2)
	b.u16(1)
	b.u16(uint16(first))
	b.u16(uint16(last))
	b.u16(0)
	return b
}

// withChildren appends children to header and patches 16-bit offsets to
// them at the given positions.
func withChildren(header w, at []int, children [][]byte) []byte {
	for i, c := range children {
		header.putU16(at[i], uint16(len(header)))
		header.bytes(c)
	}
	return header
}

// SingleSubst creates a single substitution subtable, format 2.
func SingleSubst(m map[int]int) Subtable {
	from := make([]int, 0, len(m))
	for g := range m {
		from = append(from, g)
	}
	sort.Ints(from)
	var b w
	b.u16(2)
	b.u16(0) // coverage offset
	b.u16(uint16(len(from)))
	for _, g := range from {
		b.u16(uint16(m[g]))
	}
	return Subtable{1, withChildren(b, []int{2}, [][]byte{coverage(from)})}
}

// SingleSubstDelta creates a single substitution subtable, format 1, over
// the glyph range first…last.
func SingleSubstDelta(first, last int, delta int16) Subtable {
	var b w
	b.u16(1)
	b.u16(0)
	b.i16(delta)
	return Subtable{1, withChildren(b, []int{2}, [][]byte{rangeCoverage(first, last)})}
}

func sequenceSubst(typ uint16, m map[int][]int) Subtable {
	from := make([]int, 0, len(m))
	for g := range m {
		from = append(from, g)
	}
	sort.Ints(from)
	var b w
	b.u16(1)
	b.u16(0)
	b.u16(uint16(len(from)))
	at := []int{2}
	children := [][]byte{coverage(from)}
	for i, g := range from {
		b.u16(0)
		at = append(at, 6+2*i)
		var seq w
		seq.u16(uint16(len(m[g])))
		for _, s := range m[g] {
			seq.u16(uint16(s))
		}
		children = append(children, seq)
	}
	return Subtable{typ, withChildren(b, at, children)}
}

// MultipleSubst creates a multiple substitution subtable (one to many).
func MultipleSubst(m map[int][]int) Subtable {
	return sequenceSubst(2, m)
}

// AlternateSubst creates an alternate substitution subtable.
func AlternateSubst(m map[int][]int) Subtable {
	return sequenceSubst(3, m)
}

// LigatureSubst creates a ligature substitution subtable.
func LigatureSubst(ligs ...Lig) Subtable {
	sets := make(map[int][]Lig)
	var first []int
	for _, l := range ligs {
		if _, ok := sets[l.Components[0]]; !ok {
			first = append(first, l.Components[0])
		}
		sets[l.Components[0]] = append(sets[l.Components[0]], l)
	}
	sort.Ints(first)
	var b w
	b.u16(1)
	b.u16(0)
	b.u16(uint16(len(first)))
	at := []int{2}
	children := [][]byte{coverage(first)}
	for i, g := range first {
		b.u16(0)
		at = append(at, 6+2*i)
		var set w
		set.u16(uint16(len(sets[g])))
		var setAt []int
		var setChildren [][]byte
		for j, l := range sets[g] {
			set.u16(0)
			setAt = append(setAt, 2+2*j)
			var lig w
			lig.u16(uint16(l.Glyph))
			lig.u16(uint16(len(l.Components)))
			for _, c := range l.Components[1:] {
				lig.u16(uint16(c))
			}
			setChildren = append(setChildren, lig)
		}
		children = append(children, withChildren(set, setAt, setChildren))
	}
	return Subtable{4, withChildren(b, at, children)}
}

// ContextSubst creates a contextual substitution subtable, format 3. Each
// entry of input is the set of glyphs accepted at that position.
func ContextSubst(input [][]int, records ...SeqLookup) Subtable {
	var b w
	b.u16(3)
	b.u16(uint16(len(input)))
	b.u16(uint16(len(records)))
	var at []int
	var children [][]byte
	for _, in := range input {
		at = append(at, len(b))
		b.u16(0)
		children = append(children, coverage(in))
	}
	for _, r := range records {
		b.u16(r.SequenceIndex)
		b.u16(r.LookupIndex)
	}
	return Subtable{5, withChildren(b, at, children)}
}

// ContextSubstGlyphs creates a contextual substitution subtable, format 1,
// with a single rule matching the glyph sequence seq.
func ContextSubstGlyphs(seq []int, records ...SeqLookup) Subtable {
	var rule w
	rule.u16(uint16(len(seq)))
	rule.u16(uint16(len(records)))
	for _, g := range seq[1:] {
		rule.u16(uint16(g))
	}
	for _, r := range records {
		rule.u16(r.SequenceIndex)
		rule.u16(r.LookupIndex)
	}
	var set w
	set.u16(1)
	set.u16(0)
	ruleSet := withChildren(set, []int{2}, [][]byte{rule})
	var b w
	b.u16(1)
	b.u16(0)
	b.u16(1)
	b.u16(0)
	return Subtable{5, withChildren(b, []int{2, 6}, [][]byte{coverage(seq[:1]), ruleSet})}
}

// ChainContextSubst creates a chained contextual substitution subtable,
// format 3.
func ChainContextSubst(backtrack, input, lookahead [][]int, records ...SeqLookup) Subtable {
	var b w
	b.u16(3)
	var at []int
	var children [][]byte
	for _, seq := range [][][]int{backtrack, input, lookahead} {
		b.u16(uint16(len(seq)))
		for _, in := range seq {
			at = append(at, len(b))
			b.u16(0)
			children = append(children, coverage(in))
		}
	}
	b.u16(uint16(len(records)))
	for _, r := range records {
		b.u16(r.SequenceIndex)
		b.u16(r.LookupIndex)
	}
	return Subtable{6, withChildren(b, at, children)}
}

// ExtensionSubst wraps a subtable into an extension subtable.
func ExtensionSubst(sub Subtable) Subtable {
	var b w
	b.u16(1)
	b.u16(sub.Type)
	b.u32(8)
	b.bytes(sub.Data)
	return Subtable{7, b}
}

// ReverseChainSubst creates a reverse chaining single substitution subtable
// with neither backtrack nor lookahead context.
func ReverseChainSubst(m map[int]int) Subtable {
	from := make([]int, 0, len(m))
	for g := range m {
		from = append(from, g)
	}
	sort.Ints(from)
	var b w
	b.u16(1)
	b.u16(0) // coverage
	b.u16(0) // backtrack count
	b.u16(0) // lookahead count
	b.u16(uint16(len(from)))
	for _, g := range from {
		b.u16(uint16(m[g]))
	}
	return Subtable{8, withChildren(b, []int{2}, [][]byte{coverage(from)})}
}

// --- GSUB table ------------------------------------------------------------

type lookup struct {
	typ       uint16
	subtables [][]byte
}

type gsubBuilder struct {
	lookups  []lookup
	features map[string][]int
}

func (gb *gsubBuilder) add(feature string, subs ...Subtable) int {
	if gb.features == nil {
		gb.features = make(map[string][]int)
	}
	lk := lookup{typ: subs[0].Type}
	for _, s := range subs {
		lk.subtables = append(lk.subtables, s.Data)
	}
	gb.lookups = append(gb.lookups, lk)
	inx := len(gb.lookups) - 1
	if feature != "" {
		gb.features[feature] = append(gb.features[feature], inx)
	}
	return inx
}

func (gb *gsubBuilder) build() []byte {
	tags := make([]string, 0, len(gb.features))
	for t := range gb.features {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	// script list: DFLT with default LangSys using all features
	var langSys w
	langSys.u16(0)
	langSys.u16(0xFFFF)
	langSys.u16(uint16(len(tags)))
	for i := range tags {
		langSys.u16(uint16(i))
	}
	var script w
	script.u16(4)
	script.u16(0)
	script.bytes(langSys)
	var scripts w
	scripts.u16(1)
	scripts.tag("DFLT")
	scripts.u16(8)
	scripts.bytes(script)
	// feature list
	var features w
	features.u16(uint16(len(tags)))
	var at []int
	var children [][]byte
	for _, t := range tags {
		features.tag(t)
		at = append(at, len(features))
		features.u16(0)
		var f w
		f.u16(0)
		f.u16(uint16(len(gb.features[t])))
		for _, l := range gb.features[t] {
			f.u16(uint16(l))
		}
		children = append(children, f)
	}
	featureList := withChildren(features, at, children)
	// lookup list
	var lookups w
	lookups.u16(uint16(len(gb.lookups)))
	at, children = nil, nil
	for _, lk := range gb.lookups {
		at = append(at, len(lookups))
		lookups.u16(0)
		var l w
		l.u16(lk.typ)
		l.u16(0)
		l.u16(uint16(len(lk.subtables)))
		var subAt []int
		for i := range lk.subtables {
			subAt = append(subAt, 6+2*i)
			l.u16(0)
		}
		children = append(children, withChildren(l, subAt, lk.subtables))
	}
	lookupList := withChildren(lookups, at, children)
	var b w
	b.u32(0x00010000)
	b.u16(0)
	b.u16(0)
	b.u16(0)
	return withChildren(b, []int{4, 6, 8}, [][]byte{scripts, featureList, lookupList})
}
