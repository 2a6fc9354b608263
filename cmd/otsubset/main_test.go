package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/sfnt"
)

func writeTestFont(t *testing.T) string {
	font := fonttest.New(10).
		Map('a', 1).Map('b', 2).Map('c', 3).Map('A', 4).
		Composite(3, 5, 6).
		Ligature("liga", 7, 1, 2).
		Build()
	path := filepath.Join(t.TempDir(), "Test.TTF")
	require.NoError(t, os.WriteFile(path, font, 0o644))
	return path
}

func TestOutputPath(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	assert.Equal(t, "/x/Font.subset.ttf", outputPath("/x/Font.TTF", ""))
	assert.Equal(t, "out.ttf", outputPath("/x/Font.TTF", "out.ttf"))
}

func TestParseGlyphIDs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	gids, err := parseGlyphIDs(" 4261, 7,,")
	require.NoError(t, err)
	assert.Equal(t, []uint32{4261, 7}, gids)
	_, err = parseGlyphIDs("70000")
	assert.Error(t, err)
	assert.Equal(t, []string{"--glyph-names"}, splitList(" --glyph-names , "))
}

func TestParseCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	ops := parseCommand("gid:1,2 text:hello world")
	require.Len(t, ops, 2)
	assert.Equal(t, Op{code: GID, arg: "1,2"}, ops[0])
	assert.Equal(t, Op{code: TEXT, arg: "hello world"}, ops[1])
	ops = parseCommand("frobnicate quit closure")
	require.Len(t, ops, 2)
	assert.Equal(t, HELP, ops[0].code)
	assert.Equal(t, QUIT, ops[1].code)
}

func TestSessionClosureSteps(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	s, err := newSession(writeTestFont(t))
	require.NoError(t, err)
	defer s.close()
	require.NoError(t, s.configure("3", "", false, ""))
	gids, err := s.closure()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 3, 5, 6}, gids)
	require.NoError(t, s.addText("ab"))
	pairs, err := s.mapping()
	require.NoError(t, err)
	assert.Equal(t, []glyphPair{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {5, 4}, {6, 5}, {7, 6}}, pairs)
}

func TestSessionWritesSubset(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	path := writeTestFont(t)
	s, err := newSession(path)
	require.NoError(t, err)
	defer s.close()
	require.NoError(t, s.configure("", "a", true, "--no-layout-closure"))
	out := outputPath(path, "")
	require.NoError(t, s.run(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	f, err := sfnt.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumGlyphs()) // .notdef, a, A
}

func TestSessionRejectsUnknownFlag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	s, err := newSession(writeTestFont(t))
	require.NoError(t, err)
	defer s.close()
	assert.Error(t, s.configure("", "", false, "--frobnicate"))
}
