/*
Package fonttest builds small synthetic TrueType fonts for tests.

Fonts are assembled from a glyph list, a character map and optional layout
rules. The binaries are structurally valid OpenType files and can be read by
any sfnt parser.

	font := fonttest.New(6).
		Map('A', 1).Map('B', 2).
		Composite(3, 1, 2).
		Ligature("liga", 3, 1, 2).
		Build()

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fonttest

import (
	"slices"
	"sort"
	"unicode/utf16"
)

// Glyph describes one glyph of a test font.
type Glyph struct {
	Name       string
	Advance    uint16
	LSB        int16
	Components []int // composite glyph if non-empty
	Empty      bool  // glyph without outline
}

// UVS is a non-default Unicode variation sequence mapping.
type UVS struct {
	Base, Selector rune
	Glyph          int
}

// KernPair is a kerning pair of the kern table.
type KernPair struct {
	Left, Right int
	Value       int16
}

// Builder assembles a test font.
type Builder struct {
	glyphs    []Glyph
	cmap      map[rune]int
	uvs       []UVS
	gsub      gsubBuilder
	kern      []KernPair
	postNames bool
	os2       bool
	longLoca  bool
	cff       bool
	noName    bool
	extra     map[string][]byte
}

// New creates a builder for a font with n glyphs. All glyphs are simple
// glyphs with a triangular outline and an advance of 500 units.
func New(n int) *Builder {
	b := &Builder{
		glyphs: make([]Glyph, n),
		cmap:   make(map[rune]int),
		extra:  make(map[string][]byte),
	}
	for i := range b.glyphs {
		b.glyphs[i].Advance = 500
		b.glyphs[i].LSB = 0
	}
	return b
}

// Map maps code-point r to glyph g.
func (b *Builder) Map(r rune, g int) *Builder {
	b.cmap[r] = g
	return b
}

// MapVariation adds a variation sequence mapping (cmap format 14).
func (b *Builder) MapVariation(base, selector rune, g int) *Builder {
	b.uvs = append(b.uvs, UVS{base, selector, g})
	return b
}

// Composite turns glyph g into a composite of comps.
func (b *Builder) Composite(g int, comps ...int) *Builder {
	b.glyphs[g].Components = comps
	return b
}

// Empty removes the outline of glyph g.
func (b *Builder) Empty(g int) *Builder {
	b.glyphs[g].Empty = true
	return b
}

// Advance sets the advance width of glyph g.
func (b *Builder) Advance(g int, adv uint16) *Builder {
	b.glyphs[g].Advance = adv
	return b
}

// Name sets the PostScript name of glyph g. Fonts with at least one named
// glyph get a post table of format 2.
func (b *Builder) Name(g int, name string) *Builder {
	b.glyphs[g].Name = name
	b.postNames = true
	return b
}

// Kern adds a kerning pair.
func (b *Builder) Kern(left, right int, value int16) *Builder {
	b.kern = append(b.kern, KernPair{left, right, value})
	return b
}

// WithOS2 adds an OS/2 table.
func (b *Builder) WithOS2() *Builder {
	b.os2 = true
	return b
}

// LongLoca forces 32-bit loca offsets.
func (b *Builder) LongLoca() *Builder {
	b.longLoca = true
	return b
}

// AsCFF produces a font with (dummy) CFF outlines instead of glyf/loca.
func (b *Builder) AsCFF() *Builder {
	b.cff = true
	return b
}

// WithoutName omits the name table.
func (b *Builder) WithoutName() *Builder {
	b.noName = true
	return b
}

// Table adds a table with arbitrary content. A nil data removes a
// previously added table.
func (b *Builder) Table(tag string, data []byte) *Builder {
	if data == nil {
		delete(b.extra, tag)
	} else {
		b.extra[tag] = data
	}
	return b
}

// Lookup adds a GSUB lookup consisting of subs, referenced from feature. If
// feature is empty, the lookup is only reachable from contextual lookups.
// Lookup returns the index of the new lookup.
func (b *Builder) Lookup(feature string, subs ...Subtable) int {
	return b.gsub.add(feature, subs...)
}

// Single adds a single substitution from → to for feature.
func (b *Builder) Single(feature string, from, to int) *Builder {
	b.Lookup(feature, SingleSubst(map[int]int{from: to}))
	return b
}

// Ligature adds a ligature substitution comps → lig for feature.
func (b *Builder) Ligature(feature string, lig int, comps ...int) *Builder {
	b.Lookup(feature, LigatureSubst(Lig{Glyph: lig, Components: comps}))
	return b
}

// Build assembles the font binary.
func (b *Builder) Build() []byte {
	tables := make(map[string][]byte)
	for tag, data := range b.extra {
		tables[tag] = data
	}
	n := len(b.glyphs)
	if b.cff {
		var maxp w
		maxp.u32(0x00005000)
		maxp.u16(uint16(n))
		tables["maxp"] = maxp
		tables["CFF "] = []byte{1, 0, 4, 1}
	} else {
		glyf, loca, long := b.glyf()
		tables["glyf"], tables["loca"] = glyf, loca
		b.longLoca = long
		tables["maxp"] = b.maxp()
	}
	tables["head"] = b.head()
	tables["hhea"] = b.hhea()
	tables["hmtx"] = b.hmtx()
	tables["cmap"] = b.cmapTable()
	tables["post"] = b.post()
	if !b.noName {
		tables["name"] = nameTable("Test")
	}
	if b.os2 {
		tables["OS/2"] = b.os2Table()
	}
	if len(b.kern) > 0 {
		tables["kern"] = b.kernTable()
	}
	if len(b.gsub.lookups) > 0 {
		tables["GSUB"] = b.gsub.build()
	}
	version := uint32(0x00010000)
	if b.cff {
		version = 0x4f54544f
	}
	return assemble(version, tables, 0)
}

// assemble writes an sfnt file. base is the offset of the font within a
// collection file.
func assemble(version uint32, tables map[string][]byte, base int) []byte {
	tags := make([]string, 0, len(tables))
	for t := range tables {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	var out w
	out.u32(version)
	out.u16(uint16(len(tags)))
	sel := 0
	for 1<<(sel+1) <= len(tags) {
		sel++
	}
	out.u16(uint16(16 << sel))
	out.u16(uint16(sel))
	out.u16(uint16(16*len(tags) - 16<<sel))
	dir := len(out)
	for range tags {
		out.bytes(make([]byte, 16))
	}
	headAt := 0
	for i, t := range tags {
		data := tables[t]
		out.pad4()
		if t == "head" {
			headAt = len(out)
		}
		rec := dir + 16*i
		copy(out[rec:], (t + "    ")[:4])
		out.putU32(rec+4, checksum(data))
		out.putU32(rec+8, uint32(base+len(out)))
		out.putU32(rec+12, uint32(len(data)))
		out.bytes(data)
	}
	out.pad4()
	if headAt > 0 {
		out.putU32(headAt+8, 0xB1B0AFBA-checksum(out))
	}
	return out
}

// Collection assembles a TrueType collection from single-font binaries.
func Collection(fonts ...[]byte) []byte {
	var out w
	out.tag("ttcf")
	out.u32(0x00010000)
	out.u32(uint32(len(fonts)))
	offAt := len(out)
	for range fonts {
		out.u32(0)
	}
	for i, f := range fonts {
		out.pad4()
		base := len(out)
		out.putU32(offAt+4*i, uint32(base))
		out.bytes(relocate(f, base))
	}
	return out
}

// relocate shifts the table offsets of a font binary by base.
func relocate(font []byte, base int) []byte {
	f := slices.Clone(font)
	n := int(uint16(f[4])<<8 | uint16(f[5]))
	for i := 0; i < n; i++ {
		at := 12 + 16*i + 8
		off := uint32(f[at])<<24 | uint32(f[at+1])<<16 | uint32(f[at+2])<<8 | uint32(f[at+3])
		w(f).putU32(at, off+uint32(base))
	}
	return f
}

// --- Tables ----------------------------------------------------------------

const (
	unitsPerEm = 1000
	ascender   = 800
	descender  = -200
)

func (b *Builder) head() []byte {
	var t w
	t.u32(0x00010000) // version
	t.u32(0x00010000) // fontRevision
	t.u32(0)          // checkSumAdjustment
	t.u32(0x5F0F3CF5) // magicNumber
	t.u16(0x000B)     // flags
	t.u16(unitsPerEm)
	t.u32(0)
	t.u32(0) // created
	t.u32(0)
	t.u32(0) // modified
	t.i16(0)
	t.i16(descender)
	t.i16(500)
	t.i16(ascender) // bbox
	t.u16(0)        // macStyle
	t.u16(8)        // lowestRecPPEM
	t.i16(2)        // fontDirectionHint
	if b.longLoca {
		t.i16(1)
	} else {
		t.i16(0)
	}
	t.i16(0) // glyphDataFormat
	return t
}

func (b *Builder) hhea() []byte {
	var t w
	t.u32(0x00010000)
	t.i16(ascender)
	t.i16(descender)
	t.i16(0) // lineGap
	maxAdv := uint16(0)
	for _, g := range b.glyphs {
		maxAdv = max(maxAdv, g.Advance)
	}
	t.u16(maxAdv)
	t.i16(0)   // minLeftSideBearing
	t.i16(0)   // minRightSideBearing
	t.i16(500) // xMaxExtent
	t.i16(1)   // caretSlopeRise
	t.i16(0)   // caretSlopeRun
	t.i16(0)   // caretOffset
	for i := 0; i < 4; i++ {
		t.i16(0)
	}
	t.i16(0) // metricDataFormat
	t.u16(uint16(len(b.glyphs)))
	return t
}

func (b *Builder) hmtx() []byte {
	var t w
	for _, g := range b.glyphs {
		t.u16(g.Advance)
		t.i16(g.LSB)
	}
	return t
}

func (b *Builder) maxp() []byte {
	var t w
	t.u32(0x00010000)
	t.u16(uint16(len(b.glyphs)))
	t.u16(3) // maxPoints
	t.u16(1) // maxContours
	t.u16(0) // maxCompositePoints
	t.u16(0) // maxCompositeContours
	t.u16(2) // maxZones
	t.u16(0) // maxTwilightPoints
	t.u16(0) // maxStorage
	t.u16(0) // maxFunctionDefs
	t.u16(0) // maxInstructionDefs
	t.u16(0) // maxStackElements
	t.u16(0) // maxSizeOfInstructions
	maxComps := 0
	for _, g := range b.glyphs {
		maxComps = max(maxComps, len(g.Components))
	}
	t.u16(uint16(maxComps))
	if maxComps > 0 {
		t.u16(1)
	} else {
		t.u16(0)
	}
	return t
}

func (b *Builder) glyf() (glyf, loca []byte, long bool) {
	var g w
	offsets := make([]int, 0, len(b.glyphs)+1)
	for _, gl := range b.glyphs {
		offsets = append(offsets, len(g))
		switch {
		case len(gl.Components) > 0:
			g.i16(-1)
			g.i16(0)
			g.i16(0)
			g.i16(500)
			g.i16(700)
			for i, c := range gl.Components {
				flags := uint16(0x0001 | 0x0002) // ARG_1_AND_2_ARE_WORDS | ARGS_ARE_XY_VALUES
				if i < len(gl.Components)-1 {
					flags |= 0x0020 // MORE_COMPONENTS
				}
				g.u16(flags)
				g.u16(uint16(c))
				g.i16(0)
				g.i16(0)
			}
		case gl.Empty:
		default:
			g.i16(1) // one contour
			g.i16(0)
			g.i16(0)
			g.i16(500)
			g.i16(700)
			g.u16(2) // endPtsOfContours
			g.u16(0) // instructionLength
			g.u8(0x01)
			g.u8(0x01)
			g.u8(0x01)
			g.i16(0)
			g.i16(250)
			g.i16(250)
			g.i16(0)
			g.i16(700)
			g.i16(-700)
		}
		g.pad4()
	}
	offsets = append(offsets, len(g))
	long = b.longLoca || len(g) > 0x1FFFE
	var l w
	for _, off := range offsets {
		if long {
			l.u32(uint32(off))
		} else {
			l.u16(uint16(off / 2))
		}
	}
	return g, l, long
}

func (b *Builder) post() []byte {
	var t w
	if b.postNames {
		t.u32(0x00020000)
	} else {
		t.u32(0x00030000)
	}
	t.u32(0) // italicAngle
	t.i16(-100)
	t.i16(50)
	for i := 0; i < 5; i++ {
		t.u32(0)
	}
	if !b.postNames {
		return t
	}
	t.u16(uint16(len(b.glyphs)))
	var names w
	k := 0
	for i, g := range b.glyphs {
		if i == 0 || g.Name == "" || g.Name == ".notdef" {
			t.u16(0)
			continue
		}
		t.u16(uint16(258 + k))
		k++
		names.u8(uint8(len(g.Name)))
		names.bytes([]byte(g.Name))
	}
	t.bytes(names)
	return t
}

func nameTable(family string) []byte {
	s := utf16.Encode([]rune(family))
	var t w
	t.u16(0)
	t.u16(1)
	t.u16(6 + 12)
	t.u16(3)
	t.u16(1)
	t.u16(0x409)
	t.u16(1) // family name
	t.u16(uint16(2 * len(s)))
	t.u16(0)
	for _, c := range s {
		t.u16(c)
	}
	return t
}

func (b *Builder) os2Table() []byte {
	t := make(w, 0, 96)
	t.u16(4)   // version
	t.i16(500) // xAvgCharWidth
	t.u16(400) // usWeightClass
	t.u16(5)   // usWidthClass
	t.bytes(make([]byte, 64-len(t)))
	first, last := uint16(0xFFFF), uint16(0)
	for r := range b.cmap {
		c := uint16(min(r, 0xFFFF))
		first, last = min(first, c), max(last, c)
	}
	t.u16(first)
	t.u16(last)
	t.bytes(make([]byte, 96-len(t)))
	return t
}

func (b *Builder) kernTable() []byte {
	pairs := slices.Clone(b.kern)
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Left != pairs[j].Left {
			return pairs[i].Left < pairs[j].Left
		}
		return pairs[i].Right < pairs[j].Right
	})
	var t w
	t.u16(0) // version
	t.u16(1) // nTables
	t.u16(0) // subtable version
	t.u16(uint16(14 + 6*len(pairs)))
	t.u16(0x0001) // horizontal, format 0
	t.u16(uint16(len(pairs)))
	sel := 0
	for 1<<(sel+1) <= len(pairs) {
		sel++
	}
	t.u16(uint16(6 << sel))
	t.u16(uint16(sel))
	t.u16(uint16(6*len(pairs) - 6<<sel))
	for _, p := range pairs {
		t.u16(uint16(p.Left))
		t.u16(uint16(p.Right))
		t.i16(p.Value)
	}
	return t
}

func (b *Builder) cmapTable() []byte {
	runes := make([]rune, 0, len(b.cmap))
	supplementary := false
	for r := range b.cmap {
		runes = append(runes, r)
		supplementary = supplementary || r > 0xFFFF
	}
	slices.Sort(runes)
	type rec struct {
		pid, eid uint16
		data     []byte
	}
	var recs []rec
	if len(b.uvs) > 0 {
		recs = append(recs, rec{0, 5, b.cmap14()})
	}
	cmap4, complete := b.cmap4(runes)
	recs = append(recs, rec{3, 1, cmap4})
	if supplementary || !complete {
		recs = append(recs, rec{3, 10, b.cmap12(runes)})
	}
	var t w
	t.u16(0)
	t.u16(uint16(len(recs)))
	off := 4 + 8*len(recs)
	for _, r := range recs {
		t.u16(r.pid)
		t.u16(r.eid)
		t.u32(uint32(off))
		off += len(r.data)
	}
	for _, r := range recs {
		t.bytes(r.data)
	}
	return t
}

// maxSegments is the number of format 4 segments fitting a 16-bit length.
const maxSegments = (0xFFFF - 16) / 8

// cmap4 writes one segment per BMP code-point, using delta values only.
// If not all BMP code-points fit, the subtable holds the first ones and
// complete is false.
func (b *Builder) cmap4(runes []rune) (sub []byte, complete bool) {
	var bmp []rune
	for _, r := range runes {
		if r <= 0xFFFE {
			bmp = append(bmp, r)
		}
	}
	complete = len(bmp) < maxSegments
	if !complete {
		bmp = bmp[:maxSegments-1]
	}
	segs := len(bmp) + 1
	var t w
	t.u16(4)
	t.u16(uint16(16 + 8*segs))
	t.u16(0) // language
	t.u16(uint16(2 * segs))
	sel := 0
	for 1<<(sel+1) <= segs {
		sel++
	}
	t.u16(uint16(2 << sel))
	t.u16(uint16(sel))
	t.u16(uint16(2*segs - 2<<sel))
	for _, r := range bmp {
		t.u16(uint16(r))
	}
	t.u16(0xFFFF)
	t.u16(0) // reservedPad
	for _, r := range bmp {
		t.u16(uint16(r))
	}
	t.u16(0xFFFF)
	for _, r := range bmp {
		t.u16(uint16(b.cmap[r]) - uint16(r))
	}
	t.u16(1)
	for range segs {
		t.u16(0)
	}
	return t, complete
}

func (b *Builder) cmap12(runes []rune) []byte {
	var t w
	t.u16(12)
	t.u16(0)
	t.u32(uint32(16 + 12*len(runes)))
	t.u32(0)
	t.u32(uint32(len(runes)))
	for _, r := range runes {
		t.u32(uint32(r))
		t.u32(uint32(r))
		t.u32(uint32(b.cmap[r]))
	}
	return t
}

func (b *Builder) cmap14() []byte {
	bySel := make(map[rune][]UVS)
	var sels []rune
	for _, u := range b.uvs {
		if _, ok := bySel[u.Selector]; !ok {
			sels = append(sels, u.Selector)
		}
		bySel[u.Selector] = append(bySel[u.Selector], u)
	}
	slices.Sort(sels)
	var t w
	t.u16(14)
	t.u32(0) // length, patched below
	t.u32(uint32(len(sels)))
	off := 10 + 11*len(sels)
	var tail w
	for _, s := range sels {
		maps := bySel[s]
		sort.Slice(maps, func(i, j int) bool { return maps[i].Base < maps[j].Base })
		t.u24(uint32(s))
		t.u32(0) // no default UVS
		t.u32(uint32(off + len(tail)))
		tail.u32(uint32(len(maps)))
		for _, m := range maps {
			tail.u24(uint32(m.Base))
			tail.u16(uint16(m.Glyph))
		}
	}
	t.bytes(tail)
	t.putU32(2, uint32(len(t)))
	return t
}
