package otsubset

import (
	"errors"
	"sync"
	"testing"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func testFont() []byte {
	return fonttest.New(10).
		Map('a', 1).Map('b', 2).Map('c', 3).Map('d', 4).
		Composite(3, 5, 6).
		Ligature("liga", 7, 1, 2).
		Build()
}

func TestBlobAndFaceLifecycle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	font := testFont()
	e := NewEngine()
	blob := e.CreateBlob(font, otface.ReadOnly)
	n, err := e.BlobLength(blob)
	require.NoError(t, err)
	assert.Equal(t, len(font), n)
	face, err := e.CreateFace(blob, 0)
	require.NoError(t, err)
	require.NoError(t, e.DestroyBlob(blob))
	_, err = e.BlobLength(blob)
	assert.True(t, errors.Is(err, core.ErrStale))
	assert.True(t, errors.Is(e.DestroyBlob(blob), core.ErrStale), "double destroy")
	//
	count, err := e.FaceGlyphCount(face)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
	ref, err := e.ReferenceBlob(face)
	require.NoError(t, err)
	view, err := e.BlobData(ref)
	require.NoError(t, err)
	data, err := view.Copy()
	require.NoError(t, err)
	assert.Equal(t, font, data)
	b, err := view.At(0)
	require.NoError(t, err)
	assert.Equal(t, font[0], b)
	require.NoError(t, view.Release())
	_, err = view.Copy()
	assert.True(t, errors.Is(err, core.ErrStale))
	require.NoError(t, e.DestroyBlob(ref))
	require.NoError(t, e.DestroyFace(face))
	_, err = e.FaceGlyphCount(face)
	assert.True(t, errors.Is(err, core.ErrStale))
	assert.Equal(t, Stats{}, e.Stats())
}

func TestMalformedFace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine()
	blob := e.CreateBlob([]byte("not a font at all"), otface.ReadOnly)
	face, err := e.CreateFace(blob, 0)
	assert.True(t, face.IsZero())
	assert.Equal(t, core.EMALFORMED, core.Code(err))
	blob2 := e.CreateBlob(testFont(), otface.ReadOnly)
	_, err = e.CreateFace(blob2, 1)
	assert.Equal(t, core.EMALFORMED, core.Code(err))
}

func TestSetNextMany(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine()
	set := e.CreateSet()
	require.NoError(t, e.SetAdd(set, 900, 3, 70000, 17, 3))
	n, err := e.SetPopulation(set)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	//
	out := make([]uint32, n)
	written, truncated, err := e.SetNextMany(set, Invalid, out, n)
	require.NoError(t, err)
	assert.Equal(t, 4, written)
	assert.False(t, truncated)
	assert.Equal(t, []uint32{3, 17, 900, 70000}, out)
	//
	small := make([]uint32, 2)
	written, truncated, err = e.SetNextMany(set, Invalid, small, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.True(t, truncated)
	assert.Equal(t, []uint32{3, 17}, small)
	written, truncated, err = e.SetNextMany(set, small[1], small, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.False(t, truncated)
	assert.Equal(t, []uint32{900, 70000}, small)
	//
	written, truncated, err = e.SetNextMany(set, Invalid, out, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.True(t, truncated)
	//
	require.NoError(t, e.DestroySet(set))
	_, _, err = e.SetNextMany(set, Invalid, out, n)
	assert.True(t, errors.Is(err, core.ErrStale))
}

func TestExtractSet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine(WithArenaSize(64))
	set := e.CreateSet()
	var want []uint32
	for v := uint32(5); v < 2000; v += 7 {
		require.NoError(t, e.SetAdd(set, v))
		want = append(want, v)
	}
	view, err := e.ExtractSet(set)
	require.NoError(t, err)
	assert.Equal(t, len(want), view.Len())
	got, err := view.Copy()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	x, err := view.At(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(26), x)
	_, err = view.At(view.Len())
	assert.Equal(t, core.EINVALID, core.Code(err))
	require.NoError(t, view.Release())
	_, err = view.At(3)
	assert.True(t, errors.Is(err, core.ErrStale))
	assert.True(t, errors.Is(view.Release(), core.ErrStale))
	//
	empty := e.CreateSet()
	ev, err := e.ExtractSet(empty)
	require.NoError(t, err)
	assert.Equal(t, 0, ev.Len())
	vals, err := ev.Copy()
	require.NoError(t, err)
	assert.Empty(t, vals)
	//
	e.Reclaim()
	_, err = ev.Copy()
	assert.True(t, errors.Is(err, core.ErrStale), "reclaimed views are stale")
}

func TestSubsetOrFail(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine()
	sc := e.NewScope()
	blob := sc.Blob(e.CreateBlob(testFont(), otface.ReadOnly))
	face, err := e.CreateFace(blob, 0)
	require.NoError(t, err)
	sc.Face(face)
	in := sc.Input(e.CreateInput())
	unicodes, err := e.InputUnicodeSet(in)
	require.NoError(t, err)
	require.NoError(t, e.SetAdd(unicodes, 'a', 'b', 'c'))
	again, err := e.InputUnicodeSet(in)
	require.NoError(t, err)
	assert.Equal(t, unicodes, again)
	//
	plan, err := e.CreatePlan(face, in)
	require.NoError(t, err)
	sc.Plan(plan)
	gmap := sc.Map(mustMap(t, e, plan))
	size, err := e.MapLen(gmap)
	require.NoError(t, err)
	assert.Equal(t, 7, size) // 0, a, b, c, two components of c, fi ligature
	v, err := e.MapGet(gmap, 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), v)
	v, err = e.MapGet(gmap, 4)
	require.NoError(t, err)
	assert.Equal(t, Invalid, v)
	keys := sc.Set(mustKeys(t, e, gmap))
	kv := sc.U32View(mustExtract(t, e, keys))
	got, err := kv.Copy()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 3, 5, 6, 7}, got)
	values, err := e.MapValues(gmap)
	require.NoError(t, err)
	sc.Set(values)
	vv := sc.U32View(mustExtract(t, e, values))
	got, err = vv.Copy()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6}, got)
	//
	sub, err := e.SubsetOrFail(face, in)
	require.NoError(t, err)
	sc.Face(sub)
	count, err := e.FaceGlyphCount(sub)
	require.NoError(t, err)
	assert.Equal(t, size, count)
	out := sc.Blob(mustRef(t, e, sub))
	n, err := e.BlobLength(out)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
	data := sc.ByteView(mustData(t, e, out))
	bytez, err := data.Copy()
	require.NoError(t, err)
	reparsed, err := otface.NewFace(otface.NewBlob(bytez, otface.ReadOnly), 0)
	require.NoError(t, err)
	assert.Equal(t, size, reparsed.NumGlyphs())
	//
	require.NoError(t, sc.Close())
	assert.Equal(t, Stats{}, e.Stats())
}

func TestClosureWithoutSubset(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine()
	sc := e.NewScope()
	defer sc.Close()
	face, err := e.CreateFace(sc.Blob(e.CreateBlob(testFont(), otface.ReadOnly)), 0)
	require.NoError(t, err)
	sc.Face(face)
	in := sc.Input(e.CreateInput())
	glyphs, err := e.InputGlyphSet(in)
	require.NoError(t, err)
	require.NoError(t, e.SetAdd(glyphs, 1, 2))
	require.NoError(t, e.InputSetFlagNames(in, "--no-layout-closure"))
	p1 := sc.Plan(mustPlan(t, e, face, in))
	require.NoError(t, e.InputSetFlags(in, 0))
	p2 := sc.Plan(mustPlan(t, e, face, in))
	m1 := sc.Map(mustMap(t, e, p1))
	m2 := sc.Map(mustMap(t, e, p2))
	n1, _ := e.MapLen(m1)
	n2, _ := e.MapLen(m2)
	assert.Equal(t, 3, n1)
	assert.Equal(t, 4, n2, "layout closure adds the ligature")
	//
	err = e.InputSetFlagNames(in, "--retain-gids")
	assert.Equal(t, core.EINVALID, core.Code(err))
	err = e.InputSetFeatures(in, "toolong")
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestEmptyClosureAtBridge(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine()
	sc := e.NewScope()
	defer sc.Close()
	face, err := e.CreateFace(sc.Blob(e.CreateBlob(testFont(), otface.ReadOnly)), 0)
	require.NoError(t, err)
	sc.Face(face)
	in := sc.Input(e.CreateInput())
	unicodes, _ := e.InputUnicodeSet(in)
	require.NoError(t, e.SetAdd(unicodes, 'z'))
	sub, err := e.SubsetOrFail(face, in)
	assert.True(t, sub.IsZero())
	assert.True(t, errors.Is(err, core.ErrEmptyClosure))
	plan, err := e.CreatePlan(face, in)
	assert.True(t, plan.IsZero())
	assert.Equal(t, core.EEMPTY, core.Code(err))
}

func TestInputAddText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine()
	in := e.CreateInput()
	require.NoError(t, e.InputAddText(in, "ab", subset.WithUpperCase(language.Und)))
	unicodes, err := e.InputUnicodeSet(in)
	require.NoError(t, err)
	n, err := e.SetPopulation(unicodes)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	ok, err := e.SetContains(unicodes, 'B')
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, e.DestroyInput(in))
	err = e.InputAddText(in, "c")
	assert.True(t, errors.Is(err, core.ErrStale))
}

func TestDestroyInputReleasesSets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine()
	in := e.CreateInput()
	glyphs, err := e.InputGlyphSet(in)
	require.NoError(t, err)
	unicodes, err := e.InputUnicodeSet(in)
	require.NoError(t, err)
	require.NoError(t, e.DestroySet(unicodes))
	unicodes2, err := e.InputUnicodeSet(in)
	require.NoError(t, err)
	assert.NotEqual(t, unicodes, unicodes2)
	require.NoError(t, e.DestroyInput(in))
	_, err = e.SetPopulation(glyphs)
	assert.True(t, errors.Is(err, core.ErrStale))
	_, err = e.SetPopulation(unicodes2)
	assert.True(t, errors.Is(err, core.ErrStale))
	assert.Equal(t, Stats{}, e.Stats())
}

func TestScopeJoinsErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	e := NewEngine()
	sc := e.NewScope()
	s1 := sc.Set(e.CreateSet())
	s2 := sc.Set(e.CreateSet())
	sc.Set(SetHandle{}) // zero handles are ignored
	require.NoError(t, e.DestroySet(s1))
	err := sc.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStale))
	_, err = e.SetPopulation(s2)
	assert.True(t, errors.Is(err, core.ErrStale), "s2 destroyed by scope")
	assert.NoError(t, sc.Close())
}

func TestIndependentEnginesConcurrently(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	font := testFont()
	texts := []string{"a", "ab", "abc", "c", "d", "bd", "abcd", "ca"}
	sizes := make([]int, len(texts))
	errs := make([]error, len(texts))
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sizes[i], errs[i] = subsetSize(font, text)
		}()
	}
	wg.Wait()
	for i, text := range texts {
		require.NoError(t, errs[i], text)
		want, err := subsetSize(font, text)
		require.NoError(t, err)
		assert.Equal(t, want, sizes[i], text)
	}
	assert.Equal(t, 2, sizes[0])
	assert.Equal(t, 4, sizes[3]) // c is a composite of two glyphs
}

func subsetSize(font []byte, text string) (n int, err error) {
	e := NewEngine()
	sc := e.NewScope()
	defer func() { err = errors.Join(err, sc.Close()) }()
	face, err := e.CreateFace(sc.Blob(e.CreateBlob(font, otface.ReadOnly)), 0)
	if err != nil {
		return 0, err
	}
	sc.Face(face)
	in := sc.Input(e.CreateInput())
	unicodes, err := e.InputUnicodeSet(in)
	if err != nil {
		return 0, err
	}
	for _, r := range text {
		if err = e.SetAdd(unicodes, uint32(r)); err != nil {
			return 0, err
		}
	}
	sub, err := e.SubsetOrFail(face, in)
	if err != nil {
		return 0, err
	}
	sc.Face(sub)
	return e.FaceGlyphCount(sub)
}

func TestFontName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	assert.Equal(t, "Test", FontName(testFont()))
	assert.Equal(t, "", FontName([]byte{1, 2, 3}))
	_, err := LoadFont("/does/not/exist.ttf")
	assert.Equal(t, core.EINVALID, core.Code(err))
}

// --- Helpers ---------------------------------------------------------------

func mustPlan(t *testing.T, e *Engine, face FaceHandle, in InputHandle) PlanHandle {
	t.Helper()
	p, err := e.CreatePlan(face, in)
	require.NoError(t, err)
	return p
}

func mustMap(t *testing.T, e *Engine, p PlanHandle) MapHandle {
	t.Helper()
	m, err := e.PlanOldToNewGlyphMapping(p)
	require.NoError(t, err)
	return m
}

func mustKeys(t *testing.T, e *Engine, m MapHandle) SetHandle {
	t.Helper()
	s, err := e.MapKeys(m)
	require.NoError(t, err)
	return s
}

func mustExtract(t *testing.T, e *Engine, s SetHandle) *U32View {
	t.Helper()
	v, err := e.ExtractSet(s)
	require.NoError(t, err)
	return v
}

func mustRef(t *testing.T, e *Engine, f FaceHandle) BlobHandle {
	t.Helper()
	b, err := e.ReferenceBlob(f)
	require.NoError(t, err)
	return b
}

func mustData(t *testing.T, e *Engine, b BlobHandle) *ByteView {
	t.Helper()
	v, err := e.BlobData(b)
	require.NoError(t, err)
	return v
}
