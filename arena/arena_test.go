package arena

import (
	"errors"
	"testing"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocReadWrite(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	a := New(64)
	r, err := a.Alloc(12)
	require.NoError(t, err)
	assert.Equal(t, 12, r.Len())
	for i := 0; i < 3; i++ {
		require.NoError(t, a.PutUint32(r, i, uint32(100+i)))
	}
	for i := 0; i < 3; i++ {
		v, err := a.Uint32(r, i)
		require.NoError(t, err)
		assert.Equal(t, uint32(100+i), v)
	}
	_, err = a.Uint32(r, 3)
	assert.Equal(t, core.EINVALID, core.Code(err))
	b, err := a.Bytes(r)
	require.NoError(t, err)
	assert.Len(t, b, 12)
}

func TestFreedRegionIsStale(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	a := New(64)
	r, err := a.Alloc(8)
	require.NoError(t, err)
	require.NoError(t, a.Free(r))
	_, err = a.Bytes(r)
	assert.True(t, errors.Is(err, core.ErrStale))
	err = a.Free(r)
	assert.True(t, errors.Is(err, core.ErrStale))
	// same offset, new generation
	r2, err := a.Alloc(8)
	require.NoError(t, err)
	_, err = a.Uint32(r, 0)
	assert.True(t, errors.Is(err, core.ErrStale))
	_, err = a.Uint32(r2, 0)
	assert.NoError(t, err)
	_, err = a.Bytes(Region{})
	assert.True(t, errors.Is(err, core.ErrStale))
}

func TestGrowKeepsContent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	a := New(16)
	r, err := a.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, a.PutUint32(r, 3, 0xCAFEBABE))
	big, err := a.Alloc(1000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, a.Cap(), 1016)
	v, err := a.Uint32(r, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), v)
	assert.Equal(t, 2, a.Live())
	require.NoError(t, a.Free(big))
	require.NoError(t, a.Free(r))
	assert.Equal(t, 0, a.Live())
	assert.Len(t, a.free, 1, "free spans should coalesce")
}

func TestCoalesceAndReuse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	a := New(64)
	r1, _ := a.Alloc(16)
	r2, _ := a.Alloc(16)
	r3, _ := a.Alloc(16)
	require.NoError(t, a.Free(r1))
	require.NoError(t, a.Free(r3))
	require.NoError(t, a.Free(r2))
	assert.Len(t, a.free, 1)
	capBefore := a.Cap()
	_, err := a.Alloc(64)
	require.NoError(t, err)
	assert.Equal(t, capBefore, a.Cap(), "whole arena should be reusable without growth")
}

func TestAllocZeroesMemory(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	a := New(32)
	r, _ := a.Alloc(8)
	_ = a.PutUint32(r, 0, 0xFFFFFFFF)
	_ = a.Free(r)
	r, _ = a.Alloc(8)
	v, err := a.Uint32(r, 0)
	require.NoError(t, err)
	assert.Zero(t, v)
	_, err = a.Alloc(-1)
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestReset(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	a := New(32)
	r, _ := a.Alloc(8)
	a.Reset()
	_, err := a.Bytes(r)
	assert.True(t, errors.Is(err, core.ErrStale))
	assert.Equal(t, 0, a.Live())
}
