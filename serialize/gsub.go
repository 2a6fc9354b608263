package serialize

import (
	"slices"

	"github.com/npillmayer/otsubset/layout"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

// buildGSUB rewrites the GSUB table for the retained glyphs.
//
// Features not selected by the plan are removed. Lookup indices are
// preserved: lookups of types 1 to 4 are filtered to retained glyphs and
// renumbered, lookups of other types are written without subtables. The
// result is nil if the font has no usable GSUB or the rewritten table
// overflows 16-bit offsets.
func buildGSUB(face *otface.Face, plan *subset.Plan) []byte {
	data := face.Table(otface.T("GSUB"))
	if data == nil {
		return nil
	}
	gsub, err := layout.ParseGSUB(data)
	if err != nil {
		tracer().Infof("GSUB dropped: %v", err)
		return nil
	}
	featureMap := selectFeatures(gsub, plan.Features())
	scripts, err1 := gsubScriptList(gsub, featureMap)
	features, err2 := gsubFeatureList(gsub, featureMap)
	lookups, err3 := gsubLookupList(gsub, plan)
	if err1 != nil || err2 != nil || err3 != nil {
		tracer().Infof("GSUB dropped, rewritten table overflows")
		return nil
	}
	var header record
	header.head.u32(0x00010000)
	header.offset(scripts)
	header.offset(features)
	header.offset(lookups)
	out, err := header.bytes()
	if err != nil {
		tracer().Infof("GSUB dropped: %v", err)
		return nil
	}
	return out
}

// selectFeatures returns the new index of every retained feature, -1 for
// dropped features.
func selectFeatures(gsub *layout.GSUB, tags []otface.Tag) []int {
	m := make([]int, len(gsub.Features))
	n := 0
	for i, f := range gsub.Features {
		if tags != nil && !slices.Contains(tags, f.Tag) {
			m[i] = -1
			continue
		}
		m[i] = n
		n++
	}
	return m
}

func gsubScriptList(gsub *layout.GSUB, featureMap []int) ([]byte, error) {
	var list record
	list.head.u16(uint16(len(gsub.Scripts)))
	for _, script := range gsub.Scripts {
		var s record
		var dflt []byte
		if script.Default != nil {
			dflt = langSysBytes(*script.Default, featureMap)
		}
		s.offset(dflt)
		s.head.u16(uint16(len(script.LangSys)))
		for _, ls := range script.LangSys {
			s.head.u32(uint32(ls.Tag))
			s.offset(langSysBytes(ls, featureMap))
		}
		sb, err := s.bytes()
		if err != nil {
			return nil, err
		}
		list.head.u32(uint32(script.Tag))
		list.offset(sb)
	}
	return list.bytes()
}

func langSysBytes(ls layout.LangSys, featureMap []int) []byte {
	var out buffer
	out.u16(0) // lookupOrder
	required := uint16(0xFFFF)
	if r := int(ls.RequiredFeature); r < len(featureMap) && featureMap[r] >= 0 {
		required = uint16(featureMap[r])
	}
	out.u16(required)
	var indices []uint16
	for _, f := range ls.FeatureIndices {
		if int(f) < len(featureMap) && featureMap[f] >= 0 {
			indices = append(indices, uint16(featureMap[f]))
		}
	}
	out.u16(uint16(len(indices)))
	out.glyphs(indices)
	return out
}

func gsubFeatureList(gsub *layout.GSUB, featureMap []int) ([]byte, error) {
	var list record
	var kept []layout.Feature
	for i, f := range gsub.Features {
		if featureMap[i] >= 0 {
			kept = append(kept, f)
		}
	}
	list.head.u16(uint16(len(kept)))
	for _, f := range kept {
		var ft buffer
		ft.u16(0) // featureParams
		ft.u16(uint16(len(f.LookupIndices)))
		ft.glyphs(f.LookupIndices)
		list.head.u32(uint32(f.Tag))
		list.offset(ft)
	}
	return list.bytes()
}

// Lookup flags referring to GDEF, which is not retained.
const gdefLookupFlags = 0xFF00 | 0x0010

func gsubLookupList(gsub *layout.GSUB, plan *subset.Plan) ([]byte, error) {
	var list record
	list.head.u16(uint16(len(gsub.Lookups)))
	for i, lookup := range gsub.Lookups {
		var subs [][]byte
		for _, sub := range lookup.Subtables {
			b, err := rewriteSubtable(sub, plan)
			if err != nil {
				tracer().Debugf("lookup %d: subtable dropped: %v", i, err)
				continue
			}
			if b != nil {
				subs = append(subs, b)
			}
		}
		var lt record
		lt.head.u16(lookup.Type)
		lt.head.u16(lookup.Flag &^ gdefLookupFlags)
		lt.head.u16(uint16(len(subs)))
		for _, b := range subs {
			lt.offset(b)
		}
		lb, err := lt.bytes()
		if err != nil {
			return nil, err
		}
		list.offset(lb)
	}
	return list.bytes()
}

// rewriteSubtable returns the subtable with glyph ids renumbered and glyphs
// not retained removed. The result is nil if nothing of the subtable
// survives.
func rewriteSubtable(sub layout.Subtable, plan *subset.Plan) ([]byte, error) {
	newGlyph := func(g otface.GlyphIndex) (uint16, bool) {
		n, ok := plan.NewGlyph(g)
		return uint16(n), ok
	}
	switch sub.Type {
	case layout.GSubSingle:
		m, err := sub.SingleMapping()
		if err != nil {
			return nil, err
		}
		single := make(map[uint16][]uint16)
		for g, s := range m {
			ng, ok1 := newGlyph(g)
			ns, ok2 := newGlyph(s)
			if ok1 && ok2 {
				single[ng] = []uint16{ns}
			}
		}
		return sequenceSubtable(sub.Type, single)
	case layout.GSubMultiple, layout.GSubAlternate:
		m, err := sub.SequenceMapping()
		if err != nil {
			return nil, err
		}
		seqs := make(map[uint16][]uint16)
		for g, seq := range m {
			ng, ok := newGlyph(g)
			if !ok {
				continue
			}
			var ns []uint16
			for _, s := range seq {
				if n, ok := newGlyph(s); ok {
					ns = append(ns, n)
				} else if sub.Type == layout.GSubMultiple {
					ns = nil
					break
				}
			}
			if len(ns) > 0 {
				seqs[ng] = ns
			}
		}
		return sequenceSubtable(sub.Type, seqs)
	case layout.GSubLigature:
		ligs, err := sub.Ligatures()
		if err != nil {
			return nil, err
		}
		return ligatureSubtable(ligs, newGlyph)
	}
	return nil, nil
}

func coverageBytes(glyphs []uint16) []byte {
	var out buffer
	out.u16(1)
	out.u16(uint16(len(glyphs)))
	out.glyphs(glyphs)
	return out
}

func sortedKeys[V any](m map[uint16]V) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// sequenceSubtable writes a single substitution subtable of format 2 or a
// multiple/alternate substitution subtable of format 1.
func sequenceSubtable(typ uint16, m map[uint16][]uint16) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	covered := sortedKeys(m)
	var st record
	if typ == layout.GSubSingle {
		st.head.u16(2)
		st.offset(coverageBytes(covered))
		st.head.u16(uint16(len(covered)))
		for _, g := range covered {
			st.head.u16(m[g][0])
		}
		return st.bytes()
	}
	st.head.u16(1)
	st.offset(coverageBytes(covered))
	st.head.u16(uint16(len(covered)))
	for _, g := range covered {
		var seq buffer
		seq.u16(uint16(len(m[g])))
		seq.glyphs(m[g])
		st.offset(seq)
	}
	return st.bytes()
}

func ligatureSubtable(ligs []layout.Ligature, newGlyph func(otface.GlyphIndex) (uint16, bool)) ([]byte, error) {
	sets := make(map[uint16][][]uint16) // first component → [lig, comp2, comp3, …]
	for _, lig := range ligs {
		ng, ok := newGlyph(lig.Glyph)
		if !ok || len(lig.Components) == 0 {
			continue
		}
		entry := []uint16{ng}
		for _, c := range lig.Components {
			nc, ok := newGlyph(c)
			if !ok {
				entry = nil
				break
			}
			entry = append(entry, nc)
		}
		if entry == nil {
			continue
		}
		first := entry[1]
		entry = append(entry[:1], entry[2:]...)
		sets[first] = append(sets[first], entry)
	}
	if len(sets) == 0 {
		return nil, nil
	}
	covered := sortedKeys(sets)
	var st record
	st.head.u16(1)
	st.offset(coverageBytes(covered))
	st.head.u16(uint16(len(covered)))
	for _, first := range covered {
		var set record
		set.head.u16(uint16(len(sets[first])))
		for _, entry := range sets[first] {
			var lb buffer
			lb.u16(entry[0])
			lb.u16(uint16(len(entry)))
			lb.glyphs(entry[1:])
			set.offset(lb)
		}
		sb, err := set.bytes()
		if err != nil {
			return nil, err
		}
		st.offset(sb)
	}
	return st.bytes()
}
