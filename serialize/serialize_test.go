package serialize

import (
	"errors"
	"testing"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/layout"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFace(t *testing.T, font []byte) *otface.Face {
	t.Helper()
	face, err := otface.NewFace(otface.NewBlob(font, otface.ReadOnly), 0)
	require.NoError(t, err)
	return face
}

func plan(t *testing.T, face *otface.Face, flags subset.Flags, text string, glyphs ...otface.GlyphIndex) *subset.Plan {
	t.Helper()
	in := subset.NewInput()
	in.AddText(text)
	in.AddGlyphs(glyphs...)
	in.SetFlags(flags)
	p, err := subset.CreatePlan(face, in)
	require.NoError(t, err)
	return p
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	font := fonttest.New(12).Map('a', 3).Map('b', 4).Map('c', 9).Map(0x1F600, 11).
		Composite(9, 5, 7).Advance(3, 420).Advance(5, 610).Empty(4).
		WithOS2().Build()
	face := openFace(t, font)
	p := plan(t, face, subset.FlagDefault, "ac\U0001F600")
	require.Equal(t, []otface.GlyphIndex{0, 3, 5, 7, 9, 11}, p.Retained())
	out, err := Subset(face, p, Verify(true))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	//
	sub := openFace(t, out)
	assert.Equal(t, p.NumGlyphs(), sub.NumGlyphs())
	g, ok := sub.GlyphIndex('a')
	assert.True(t, ok)
	assert.Equal(t, otface.GlyphIndex(1), g)
	g, ok = sub.GlyphIndex('c')
	assert.True(t, ok)
	assert.Equal(t, otface.GlyphIndex(4), g)
	g, ok = sub.GlyphIndex(0x1F600)
	assert.True(t, ok)
	assert.Equal(t, otface.GlyphIndex(5), g)
	_, ok = sub.GlyphIndex('b')
	assert.False(t, ok)
	comps, err := sub.Components(4)
	require.NoError(t, err)
	assert.Equal(t, []otface.GlyphIndex{2, 3}, comps)
	adv, _ := sub.HMetrics(1)
	assert.Equal(t, uint16(420), adv)
	adv, _ = sub.HMetrics(2)
	assert.Equal(t, uint16(610), adv)
	adv, _ = sub.HMetrics(5)
	assert.Equal(t, uint16(500), adv)
	assert.Equal(t, 4, sub.NumHMetrics(), "trailing equal advances share one metric")
	assert.False(t, sub.HasTable(otface.T("GSUB")))
	os2 := sub.Table(otface.T("OS/2"))
	require.Len(t, os2, 96)
	assert.Equal(t, []byte{0, 'a', 0xFF, 0xFF}, os2[64:68])
}

func TestSubsetIsIndependentOfInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	font := fonttest.New(6).Map('x', 2).Build()
	face := openFace(t, font)
	out, err := Subset(face, plan(t, face, subset.FlagDefault, "x"))
	require.NoError(t, err)
	out[0] = 0xFF
	assert.NotEqual(t, byte(0xFF), face.Blob().Bytes()[0])
	sub := openFace(t, font)
	assert.Equal(t, 6, sub.NumGlyphs())
}

func TestGlyphNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	font := fonttest.New(5).Map('A', 1).Map('z', 3).
		Name(0, ".notdef").Name(1, "A").Name(2, "B").Name(3, "z.alt").Build()
	face := openFace(t, font)
	out, err := Subset(face, plan(t, face, subset.FlagGlyphNames, "Az"), Verify(true))
	require.NoError(t, err)
	sub := openFace(t, out)
	require.True(t, sub.HasGlyphNames())
	name, ok := sub.GlyphName(1)
	assert.True(t, ok)
	assert.Equal(t, "A", name)
	name, ok = sub.GlyphName(2)
	assert.True(t, ok)
	assert.Equal(t, "z.alt", name)
	//
	out, err = Subset(face, plan(t, face, subset.FlagDefault, "Az"), Verify(true))
	require.NoError(t, err)
	sub = openFace(t, out)
	assert.False(t, sub.HasGlyphNames())
	assert.Len(t, sub.Table(otface.T("post")), 32)
}

func TestKernFiltered(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	font := fonttest.New(6).Map('A', 1).Map('V', 2).Map('W', 3).
		Kern(1, 2, -80).Kern(1, 3, -60).Kern(2, 1, -70).Build()
	face := openFace(t, font)
	out, err := Subset(face, plan(t, face, subset.FlagDefault, "AV"), Verify(true))
	require.NoError(t, err)
	sub := openFace(t, out)
	kern := sub.Table(otface.T("kern"))
	require.Len(t, kern, 4+14+2*6)
	assert.Equal(t, uint16(2), getU16(kern, 10))
	assert.Equal(t, []uint16{1, 2, uint16(0xFFB0 /* -80 */)},
		[]uint16{getU16(kern, 18), getU16(kern, 20), getU16(kern, 22)})
	//
	out, err = Subset(face, plan(t, face, subset.FlagDefault, "W"), Verify(true))
	require.NoError(t, err)
	assert.False(t, openFace(t, out).HasTable(otface.T("kern")))
}

func TestGSUBRewritten(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	b := fonttest.New(12).Map('f', 2).Map('i', 4).Map('l', 6)
	b.Ligature("liga", 8, 2, 4) // fi
	b.Ligature("liga", 9, 2, 6) // fl
	b.Single("smcp", 4, 10)
	b.Lookup("ccmp", fonttest.MultipleSubst(map[int][]int{8: {2, 4}}))
	b.Lookup("calt", fonttest.ContextSubst([][]int{{2}, {4}}, fonttest.SeqLookup{SequenceIndex: 0, LookupIndex: 2}))
	face := openFace(t, b.Build())
	in := subset.NewInput()
	in.AddText("fi")
	in.SetFeatures(otface.T("liga"), otface.T("ccmp"), otface.T("calt"))
	p, err := subset.CreatePlan(face, in)
	require.NoError(t, err)
	require.Equal(t, []otface.GlyphIndex{0, 2, 4, 8}, p.Retained())
	out, err := Subset(face, p, Verify(true))
	require.NoError(t, err)
	//
	sub := openFace(t, out)
	gsub, err := layout.ParseGSUB(sub.Table(otface.T("GSUB")))
	require.NoError(t, err)
	require.Len(t, gsub.Lookups, 5, "lookup indices are preserved")
	var tags []string
	for _, f := range gsub.Features {
		tags = append(tags, f.Tag.String())
	}
	assert.ElementsMatch(t, []string{"liga", "ccmp", "calt"}, tags)
	ligs, err := gsub.Lookups[0].Subtables[0].Ligatures()
	require.NoError(t, err)
	assert.Equal(t, []layout.Ligature{{Glyph: 3, Components: []otface.GlyphIndex{1, 2}}}, ligs)
	assert.Empty(t, gsub.Lookups[1].Subtables, "fl ligature is not retained")
	assert.Empty(t, gsub.Lookups[2].Subtables, "small cap is not retained")
	seqs, err := gsub.Lookups[3].Subtables[0].SequenceMapping()
	require.NoError(t, err)
	assert.Equal(t, map[otface.GlyphIndex][]otface.GlyphIndex{3: {1, 2}}, seqs)
	assert.Equal(t, uint16(layout.GSubContext), gsub.Lookups[4].Type)
	assert.Empty(t, gsub.Lookups[4].Subtables)
	//
	engine := layout.NewEngine(sub)
	targets := engine.SubstitutionTargets(1, nil, func(g otface.GlyphIndex) bool { return g < 3 })
	assert.Contains(t, targets, otface.GlyphIndex(3))
}

func TestVariationSequencesRetained(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	font := fonttest.New(6).Map(0x845B, 1).Map('x', 2).
		MapVariation(0x845B, 0xE0100, 4).Build()
	face := openFace(t, font)
	in := subset.NewInput()
	in.AddRunes(0x845B, 0xE0100)
	p, err := subset.CreatePlan(face, in)
	require.NoError(t, err)
	out, err := Subset(face, p, Verify(true))
	require.NoError(t, err)
	sub := openFace(t, out)
	assert.Equal(t, []otface.UVSMapping{{Base: 0x845B, Selector: 0xE0100, Glyph: 2}},
		sub.VariationGlyphs())
}

func TestLargeFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	b := fonttest.New(4262)
	for i, r := range "star" {
		b.Map(r, 100+i)
	}
	b.Ligature("liga", 4261, 100, 101, 102, 103)
	face := openFace(t, b.Build())
	require.True(t, face.LongLoca())
	p := plan(t, face, subset.FlagDefault, "star")
	out, err := Subset(face, p, Verify(true))
	require.NoError(t, err)
	sub := openFace(t, out)
	assert.Equal(t, 6, sub.NumGlyphs())
	assert.False(t, sub.LongLoca())
	gsub, err := layout.ParseGSUB(sub.Table(otface.T("GSUB")))
	require.NoError(t, err)
	ligs, err := gsub.Lookups[0].Subtables[0].Ligatures()
	require.NoError(t, err)
	assert.Equal(t, otface.GlyphIndex(5), ligs[0].Glyph)
}

func TestPassthroughAndDroppedTables(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	font := fonttest.New(4).Map('a', 1).
		Table("prep", []byte{0xB0, 0x01, 0, 0}).
		Table("GPOS", []byte{0, 1, 0, 0, 0, 0, 0, 0, 0, 0}).
		Table("zzzz", []byte{1, 2, 3, 4}).Build()
	face := openFace(t, font)
	p := plan(t, face, subset.FlagDefault, "a")
	out, err := Subset(face, p)
	require.NoError(t, err)
	sub := openFace(t, out)
	assert.Equal(t, []byte{0xB0, 0x01, 0, 0}, sub.Table(otface.T("prep")))
	assert.True(t, sub.HasTable(otface.T("name")))
	assert.False(t, sub.HasTable(otface.T("GPOS")))
	assert.False(t, sub.HasTable(otface.T("zzzz")))
	//
	out, err = Subset(face, p, KeepTables(otface.T("zzzz")))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, openFace(t, out).Table(otface.T("zzzz")))
}

func TestSubsetFailures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	cff := openFace(t, fonttest.New(4).Map('a', 1).AsCFF().Build())
	p := plan(t, cff, subset.FlagDefault, "a")
	out, err := Subset(cff, p)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, core.ErrSubsetFailed))
	//
	font := fonttest.New(4).Map('a', 1).Build()
	face := openFace(t, font)
	other := openFace(t, font)
	p = plan(t, face, subset.FlagDefault, "a")
	_, err = Subset(other, p)
	assert.Equal(t, core.EINVALID, core.Code(err))
	require.NoError(t, face.Destroy())
	_, err = Subset(face, p)
	assert.True(t, errors.Is(err, core.ErrStale))
}

func TestTableDirectory(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	ts := newTableSet()
	ts.put(otface.T("post"), []byte{0, 3, 0, 0})
	ts.put(otface.T("head"), make([]byte, 54))
	ts.put(otface.T("cmap"), []byte{1, 2, 3})
	out := ts.write(0x00010000)
	assert.Equal(t, uint16(3), getU16(out, 4))
	assert.Equal(t, uint16(32), getU16(out, 6))
	// records sorted by tag
	assert.Equal(t, "cmap", string(out[12:16]))
	assert.Equal(t, "head", string(out[28:32]))
	assert.Equal(t, "post", string(out[44:48]))
	// head data comes first
	assert.Equal(t, uint32(12+3*16), getU32(out, 28+8))
	assert.Equal(t, uint32(0xB1B0AFBA), checksum(out), "whole font checksums to magic")
	assert.Zero(t, len(out)%4)
}

// cmapSubtable returns the subtable of a cmap table for platform and
// encoding, or nil.
func cmapSubtable(cmap []byte, platform, encoding uint16) []byte {
	n := int(getU16(cmap, 2))
	for i := 0; i < n; i++ {
		rec := 4 + 8*i
		if getU16(cmap, rec) == platform && getU16(cmap, rec+2) == encoding {
			return cmap[getU32(cmap, rec+4):]
		}
	}
	return nil
}

func TestManyBMPSegments(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	const n = 9000
	b := fonttest.New(n + 1)
	for i := 0; i < n; i++ { // glyphs in reverse order, one segment each
		b.Map(rune(0x4E00+i), n-i)
	}
	face := openFace(t, b.Build())
	in := subset.NewInput()
	for i := 0; i < n; i++ {
		in.AddRunes(rune(0x4E00 + i))
	}
	p, err := subset.CreatePlan(face, in)
	require.NoError(t, err)
	require.Equal(t, n+1, p.NumGlyphs())
	out, err := Subset(face, p, Verify(true))
	require.NoError(t, err)
	//
	sub := openFace(t, out)
	cmap := sub.Table(otface.T("cmap"))
	f4 := cmapSubtable(cmap, 3, 1)
	require.NotNil(t, f4)
	segX2 := int(getU16(f4, 6))
	assert.Equal(t, 16+4*segX2, int(getU16(f4, 2)))
	assert.Equal(t, maxFormat4Segments, segX2/2)
	f12 := cmapSubtable(cmap, 3, 10)
	require.NotNil(t, f12)
	assert.Equal(t, uint32(n), getU32(f12, 12))
	unmapped := 0
	for i := 0; i < n; i++ {
		if g, ok := sub.GlyphIndex(rune(0x4E00 + i)); !ok || g != otface.GlyphIndex(n-i) {
			unmapped++
		}
	}
	assert.Zero(t, unmapped)
}

func TestVerifyChecksCodePoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.serialize")
	defer teardown()
	//
	face := openFace(t, fonttest.New(5).Map('a', 1).Map('b', 2).Map('c', 3).Build())
	ab := plan(t, face, subset.FlagDefault, "ab")
	ac := plan(t, face, subset.FlagDefault, "ac")
	out, err := Subset(face, ab, Verify(true))
	require.NoError(t, err)
	require.NoError(t, verify(out, ab))
	err = verify(out, ac)
	require.Error(t, err)
	assert.Equal(t, core.ESUBSET, core.Code(err))
}
