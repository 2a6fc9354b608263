package layout

import (
	"slices"
	"testing"

	"github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEngine(t *testing.T, b *fonttest.Builder) *Engine {
	face, err := otface.NewFace(otface.NewBlob(b.Build(), otface.ReadOnly), 0)
	require.NoError(t, err)
	return NewEngine(face)
}

func closedSet(gs ...int) func(otface.GlyphIndex) bool {
	return func(g otface.GlyphIndex) bool {
		return slices.Contains(gs, int(g))
	}
}

func sorted(gs []otface.GlyphIndex) []otface.GlyphIndex {
	gs = slices.Clone(gs)
	slices.Sort(gs)
	return slices.Compact(gs)
}

func TestNoGSUB(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	e := makeEngine(t, fonttest.New(4).Composite(3, 1, 2))
	assert.Nil(t, e.GSUB())
	assert.Empty(t, e.SubstitutionTargets(1, nil, closedSet(1)))
	assert.Equal(t, []otface.GlyphIndex{1, 2}, e.CompositeComponents(3))
}

func TestSimpleSubstitutions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	b := fonttest.New(20)
	b.Lookup("smcp", fonttest.SingleSubst(map[int]int{1: 11, 2: 12}))
	b.Lookup("ccmp", fonttest.MultipleSubst(map[int][]int{3: {13, 14}}))
	b.Lookup("salt", fonttest.AlternateSubst(map[int][]int{4: {15, 16, 17}}))
	b.Lookup("case", fonttest.SingleSubstDelta(5, 6, 10))
	e := makeEngine(t, b)
	require.NotNil(t, e.GSUB())
	assert.Len(t, e.GSUB().Lookups, 4)
	all := closedSet()
	assert.Equal(t, []otface.GlyphIndex{12}, e.SubstitutionTargets(2, nil, all))
	assert.Equal(t, []otface.GlyphIndex{13, 14}, e.SubstitutionTargets(3, nil, all))
	assert.Equal(t, []otface.GlyphIndex{15, 16, 17}, e.SubstitutionTargets(4, nil, all))
	assert.Equal(t, []otface.GlyphIndex{16}, e.SubstitutionTargets(6, nil, all))
	assert.Empty(t, e.SubstitutionTargets(7, nil, all))
}

func TestFeatureSelection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	b := fonttest.New(10).Single("smcp", 1, 5).Single("liga", 1, 6)
	e := makeEngine(t, b)
	assert.Equal(t, []otface.GlyphIndex{5, 6}, sorted(e.SubstitutionTargets(1, nil, closedSet(1))))
	assert.Equal(t, []otface.GlyphIndex{6},
		e.SubstitutionTargets(1, []otface.Tag{otface.T("liga")}, closedSet(1)))
	assert.Empty(t, e.SubstitutionTargets(1, []otface.Tag{}, closedSet(1)))
}

func TestLigatureNeedsAllComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	e := makeEngine(t, fonttest.New(10).Ligature("liga", 9, 1, 2, 3))
	assert.Empty(t, e.SubstitutionTargets(1, nil, closedSet(1, 2)))
	assert.Equal(t, []otface.GlyphIndex{9}, e.SubstitutionTargets(1, nil, closedSet(1, 2, 3)))
	assert.Empty(t, e.SubstitutionTargets(2, nil, closedSet(1, 2, 3)), "only the first component is covered")
}

func TestContextFormat3(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	b := fonttest.New(20)
	nested := b.Lookup("", fonttest.SingleSubst(map[int]int{2: 12, 3: 13}))
	b.Lookup("calt", fonttest.ContextSubst([][]int{{1}, {2, 3}},
		fonttest.SeqLookup{SequenceIndex: 1, LookupIndex: uint16(nested)}))
	e := makeEngine(t, b)
	assert.Empty(t, e.SubstitutionTargets(1, nil, closedSet(1)), "context glyphs 2/3 not closed")
	assert.Equal(t, []otface.GlyphIndex{13}, e.SubstitutionTargets(1, nil, closedSet(1, 3)))
	assert.Empty(t, e.SubstitutionTargets(3, nil, closedSet(1, 3)), "nested lookup not reachable directly")
}

func TestChainContextFormat3(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	b := fonttest.New(20)
	nested := b.Lookup("", fonttest.SingleSubst(map[int]int{2: 12}))
	b.Lookup("calt", fonttest.ChainContextSubst([][]int{{5}}, [][]int{{2}}, [][]int{{6}},
		fonttest.SeqLookup{SequenceIndex: 0, LookupIndex: uint16(nested)}))
	e := makeEngine(t, b)
	assert.Empty(t, e.SubstitutionTargets(2, nil, closedSet(2, 5)))
	assert.Equal(t, []otface.GlyphIndex{12}, e.SubstitutionTargets(2, nil, closedSet(2, 5, 6)))
}

func TestContextFormat1(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	b := fonttest.New(20)
	nested := b.Lookup("", fonttest.SingleSubst(map[int]int{4: 14}))
	b.Lookup("calt", fonttest.ContextSubstGlyphs([]int{3, 4},
		fonttest.SeqLookup{SequenceIndex: 1, LookupIndex: uint16(nested)}))
	e := makeEngine(t, b)
	assert.Empty(t, e.SubstitutionTargets(3, nil, closedSet(3)))
	assert.Equal(t, []otface.GlyphIndex{14}, e.SubstitutionTargets(3, nil, closedSet(3, 4)))
}

func TestExtensionAndReverse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	b := fonttest.New(20)
	b.Lookup("liga", fonttest.ExtensionSubst(fonttest.LigatureSubst(fonttest.Lig{Glyph: 10, Components: []int{1, 2}})))
	b.Lookup("rclt", fonttest.ReverseChainSubst(map[int]int{3: 13}))
	e := makeEngine(t, b)
	require.NotNil(t, e.GSUB())
	assert.Equal(t, uint16(GSubLigature), e.GSUB().Lookups[0].Type, "extension should be resolved")
	assert.Equal(t, []otface.GlyphIndex{10}, e.SubstitutionTargets(1, nil, closedSet(1, 2)))
	assert.Equal(t, []otface.GlyphIndex{13}, e.SubstitutionTargets(3, nil, closedSet(3)))
}

func TestDecoders(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	b := fonttest.New(20)
	b.Lookup("a", fonttest.SingleSubst(map[int]int{1: 11, 2: 12}))
	b.Lookup("b", fonttest.MultipleSubst(map[int][]int{3: {13, 14}}))
	b.Lookup("c", fonttest.LigatureSubst(
		fonttest.Lig{Glyph: 15, Components: []int{4, 5}},
		fonttest.Lig{Glyph: 16, Components: []int{4, 6, 7}}))
	e := makeEngine(t, b)
	gsub := e.GSUB()
	require.NotNil(t, gsub)
	m, err := gsub.Lookups[0].Subtables[0].SingleMapping()
	require.NoError(t, err)
	assert.Equal(t, map[otface.GlyphIndex]otface.GlyphIndex{1: 11, 2: 12}, m)
	seq, err := gsub.Lookups[1].Subtables[0].SequenceMapping()
	require.NoError(t, err)
	assert.Equal(t, []otface.GlyphIndex{13, 14}, seq[3])
	ligs, err := gsub.Lookups[2].Subtables[0].Ligatures()
	require.NoError(t, err)
	require.Len(t, ligs, 2)
	assert.Equal(t, Ligature{Glyph: 16, Components: []otface.GlyphIndex{4, 6, 7}}, ligs[1])
	_, err = gsub.Lookups[2].Subtables[0].SingleMapping()
	assert.Error(t, err)
	require.Len(t, gsub.Scripts, 1)
	assert.Equal(t, "DFLT", gsub.Scripts[0].Tag.String())
	assert.Len(t, gsub.Scripts[0].Default.FeatureIndices, 3)
}

func TestMalformedGSUBIsIgnored(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	e := makeEngine(t, fonttest.New(4).Table("GSUB", []byte{0, 1, 0, 0, 0, 0, 0, 0, 0, 10, 0, 5}))
	assert.Nil(t, e.GSUB())
	assert.Empty(t, e.SubstitutionTargets(1, nil, closedSet(1)))
}

func TestNestingIsBounded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset.layout")
	defer teardown()
	//
	b := fonttest.New(20)
	single := b.Lookup("", fonttest.SingleSubst(map[int]int{1: 11}))
	inner := b.Lookup("", fonttest.ContextSubst([][]int{{1}},
		fonttest.SeqLookup{SequenceIndex: 0, LookupIndex: uint16(single)}))
	b.Lookup("calt", fonttest.ContextSubst([][]int{{1}},
		fonttest.SeqLookup{SequenceIndex: 0, LookupIndex: uint16(inner)}))
	face, err := otface.NewFace(otface.NewBlob(b.Build(), otface.ReadOnly), 0)
	require.NoError(t, err)
	assert.Equal(t, []otface.GlyphIndex{11}, NewEngine(face).SubstitutionTargets(1, nil, closedSet(1)))
	shallow := NewEngine(face, WithMaxNesting(1))
	assert.Empty(t, shallow.SubstitutionTargets(1, nil, closedSet(1)))
}
