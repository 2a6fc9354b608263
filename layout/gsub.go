package layout

import (
	"fmt"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/otface"
)

// GSUB lookup types.
const (
	GSubSingle = iota + 1
	GSubMultiple
	GSubAlternate
	GSubLigature
	GSubContext
	GSubChainingContext
	GSubExtension
	GSubReverseChaining
)

// Limits protecting against malicious fonts claiming unreasonable counts.
const (
	MaxScriptCount  = 500
	MaxFeatureCount = 2000
	MaxLookupCount  = 4000
)

// LangSys is a language system table.
type LangSys struct {
	Tag             otface.Tag
	RequiredFeature uint16 // 0xFFFF if none
	FeatureIndices  []uint16
}

// Script is an entry of the GSUB script list.
type Script struct {
	Tag     otface.Tag
	Default *LangSys
	LangSys []LangSys
}

// Feature is an entry of the GSUB feature list.
type Feature struct {
	Tag           otface.Tag
	LookupIndices []uint16
}

// Subtable is a lookup subtable. Extension subtables are resolved, i.e. Type
// is never GSubExtension.
type Subtable struct {
	Type   uint16
	Format uint16
	Data   []byte
}

// Lookup is an entry of the GSUB lookup list.
type Lookup struct {
	Type             uint16 // type of the subtables, with extensions resolved
	Flag             uint16
	MarkFilteringSet uint16
	Subtables        []Subtable
}

// GSUB is the parsed structure of a glyph substitution table. Subtable data
// is not decoded until needed.
type GSUB struct {
	Version  uint32
	Scripts  []Script
	Features []Feature
	Lookups  []Lookup
}

func errGSUB(format string, v ...any) error {
	return core.Error(core.EMALFORMED, "GSUB: %s", fmt.Sprintf(format, v...))
}

// ParseGSUB parses the structure of a GSUB table.
func ParseGSUB(data []byte) (*GSUB, error) {
	b := binarySegm(data)
	if len(b) < 10 {
		return nil, errGSUB("header too short")
	}
	gsub := &GSUB{Version: b.U32(0)}
	if major := gsub.Version >> 16; major != 1 {
		return nil, errGSUB("unsupported version %x", gsub.Version)
	}
	var err error
	if sl, e := b.Link(4); e == nil {
		if gsub.Scripts, err = parseScriptList(sl); err != nil {
			return nil, err
		}
	}
	if fl, e := b.Link(6); e == nil {
		if gsub.Features, err = parseFeatureList(fl); err != nil {
			return nil, err
		}
	}
	if ll, e := b.Link(8); e == nil {
		if gsub.Lookups, err = parseLookupList(ll); err != nil {
			return nil, err
		}
	}
	tracer().Debugf("GSUB has %d scripts, %d features, %d lookups",
		len(gsub.Scripts), len(gsub.Features), len(gsub.Lookups))
	return gsub, nil
}

func parseScriptList(b binarySegm) ([]Script, error) {
	n := int(b.U16(0))
	if n > MaxScriptCount {
		return nil, errGSUB("script count %d exceeds limit", n)
	}
	if _, err := b.View(2, 6*n); err != nil {
		return nil, errGSUB("script records exceed script list")
	}
	scripts := make([]Script, 0, n)
	for i := 0; i < n; i++ {
		rec := 2 + 6*i
		s, err := b.Link(rec + 4)
		if err != nil {
			return nil, errGSUB("script %d: bad offset", i)
		}
		script := Script{Tag: otface.MakeTag(b[rec : rec+4])}
		if ls, err := s.Link(0); err == nil {
			dflt, err := parseLangSys(ls)
			if err != nil {
				return nil, err
			}
			script.Default = &dflt
		}
		cnt := int(s.U16(2))
		if _, err := s.View(4, 6*cnt); err != nil {
			return nil, errGSUB("script %s: lang-sys records out of bounds", script.Tag)
		}
		for j := 0; j < cnt; j++ {
			lrec := 4 + 6*j
			ls, err := s.Link(lrec + 4)
			if err != nil {
				return nil, errGSUB("script %s: bad lang-sys offset", script.Tag)
			}
			l, err := parseLangSys(ls)
			if err != nil {
				return nil, err
			}
			l.Tag = otface.MakeTag(s[lrec : lrec+4])
			script.LangSys = append(script.LangSys, l)
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

func parseLangSys(b binarySegm) (LangSys, error) {
	n := int(b.U16(4))
	if _, err := b.View(6, 2*n); err != nil {
		return LangSys{}, errGSUB("lang-sys feature indices out of bounds")
	}
	ls := LangSys{RequiredFeature: b.U16(2), FeatureIndices: make([]uint16, n)}
	for i := range ls.FeatureIndices {
		ls.FeatureIndices[i] = b.U16(6 + 2*i)
	}
	return ls, nil
}

func parseFeatureList(b binarySegm) ([]Feature, error) {
	n := int(b.U16(0))
	if n > MaxFeatureCount {
		return nil, errGSUB("feature count %d exceeds limit", n)
	}
	if _, err := b.View(2, 6*n); err != nil {
		return nil, errGSUB("feature records exceed feature list")
	}
	features := make([]Feature, n)
	for i := range features {
		rec := 2 + 6*i
		features[i].Tag = otface.MakeTag(b[rec : rec+4])
		f, err := b.Link(rec + 4)
		if err != nil {
			return nil, errGSUB("feature %s: bad offset", features[i].Tag)
		}
		cnt := int(f.U16(2))
		if _, err := f.View(4, 2*cnt); err != nil {
			return nil, errGSUB("feature %s: lookup indices out of bounds", features[i].Tag)
		}
		features[i].LookupIndices = make([]uint16, cnt)
		for j := range features[i].LookupIndices {
			features[i].LookupIndices[j] = f.U16(4 + 2*j)
		}
	}
	return features, nil
}

func parseLookupList(b binarySegm) ([]Lookup, error) {
	n := int(b.U16(0))
	if n > MaxLookupCount {
		return nil, errGSUB("lookup count %d exceeds limit", n)
	}
	if _, err := b.View(2, 2*n); err != nil {
		return nil, errGSUB("lookup offsets exceed lookup list")
	}
	lookups := make([]Lookup, n)
	for i := range lookups {
		l, err := b.Link(2 + 2*i)
		if err != nil {
			return nil, errGSUB("lookup %d: bad offset", i)
		}
		if lookups[i], err = parseLookup(l, i); err != nil {
			return nil, err
		}
	}
	return lookups, nil
}

const useMarkFilteringSet = 0x0010

func parseLookup(b binarySegm, inx int) (Lookup, error) {
	lk := Lookup{Type: b.U16(0), Flag: b.U16(2)}
	n := int(b.U16(4))
	if _, err := b.View(6, 2*n); err != nil {
		return lk, errGSUB("lookup %d: subtable offsets out of bounds", inx)
	}
	if lk.Flag&useMarkFilteringSet != 0 {
		lk.MarkFilteringSet = b.U16(6 + 2*n)
	}
	for j := 0; j < n; j++ {
		s, err := b.Link(6 + 2*j)
		if err != nil {
			return lk, errGSUB("lookup %d: bad subtable offset", inx)
		}
		sub := Subtable{Type: lk.Type, Format: s.U16(0), Data: s}
		if lk.Type == GSubExtension {
			// Extension subtables use a 32-bit offset to the actual subtable.
			if len(s) < 8 || s.U32(4) == 0 || int(s.U32(4)) >= len(s) {
				return lk, errGSUB("lookup %d: bad extension subtable", inx)
			}
			sub.Type = s.U16(2)
			if sub.Type == GSubExtension || sub.Type == 0 || sub.Type > GSubReverseChaining {
				return lk, errGSUB("lookup %d: invalid extension lookup type %d", inx, sub.Type)
			}
			sub.Data = s[s.U32(4):]
			sub.Format = binarySegm(sub.Data).U16(0)
		}
		lk.Subtables = append(lk.Subtables, sub)
	}
	if lk.Type == GSubExtension && len(lk.Subtables) > 0 {
		lk.Type = lk.Subtables[0].Type
	}
	if lk.Type == 0 || lk.Type > GSubReverseChaining {
		return lk, errGSUB("lookup %d: invalid lookup type %d", inx, lk.Type)
	}
	return lk, nil
}

// LookupsForFeatures returns the indices of the lookups referenced by
// features whose tag satisfies include. A nil include selects all features.
// The result is ordered and free of duplicates.
func (gsub *GSUB) LookupsForFeatures(include func(otface.Tag) bool) []int {
	seen := make([]bool, len(gsub.Lookups))
	for _, f := range gsub.Features {
		if include != nil && !include(f.Tag) {
			continue
		}
		for _, l := range f.LookupIndices {
			if int(l) < len(seen) {
				seen[l] = true
			}
		}
	}
	var inx []int
	for i, s := range seen {
		if s {
			inx = append(inx, i)
		}
	}
	return inx
}
