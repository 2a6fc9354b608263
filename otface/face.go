package otface

import (
	"fmt"
	"sort"

	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/internal/binseg"
)

// Font types accepted in the sfnt header.
const (
	sfntTrueType   = 0x00010000
	sfntOpenType   = 0x4f54544f // OTTO
	sfntAppleTrue  = 0x74727565 // true
	sfntCollection = 0x74746366 // ttcf
)

// RequiredTables are the tables a font must contain to be subsetted.
var RequiredTables = []string{
	"cmap", "head", "hhea", "hmtx", "maxp",
}

// TableRecord is an entry of a font's table directory.
type TableRecord struct {
	Tag      Tag
	Checksum uint32
	Offset   uint32 // offset from the start of the blob
	Length   uint32
}

// Face is a parsed view of one font within a blob. A face holds a reference
// to its blob, which is dropped when the face is destroyed.
type Face struct {
	blob        *Blob
	index       int
	sfntVersion uint32
	records     []TableRecord // ordered by tag
	numGlyphs   int
	numHMetrics int
	cmap        *CMap
	loca        glyphLocations
	names       []string
	namesParsed bool
	destroyed   bool
	diag        diagnostics
}

// NewFace parses the font at position index within blob. For single fonts,
// index must be 0; for font collections it selects a member font.
// NewFace fails with a malformed-font error if the table directory is
// damaged, if required tables are missing, or if index is out of range.
// On success the face holds a reference to blob.
func NewFace(blob *Blob, index int) (*Face, error) {
	if !blob.Alive() {
		return nil, core.Error(core.ESTALE, "cannot create face on destroyed blob")
	}
	f := &Face{blob: blob, index: index}
	if err := f.parse(); err != nil {
		tracer().Errorf("cannot create face: %v", err)
		return nil, err
	}
	blob.Reference()
	tracer().Debugf("created face #%d with %d tables and %d glyphs", index, len(f.records), f.numGlyphs)
	return f, nil
}

// Destroy drops the face's reference to its blob. Destroying a face twice is
// a stale access.
func (f *Face) Destroy() error {
	if f.destroyed {
		return core.Error(core.ESTALE, "face already destroyed")
	}
	f.destroyed = true
	return f.blob.Destroy()
}

// Valid is false for a destroyed face or a face whose blob has been freed.
func (f *Face) Valid() bool {
	return f != nil && !f.destroyed && f.blob.Alive()
}

// Blob returns the blob holding the face's data. For a destroyed face an
// empty blob is returned.
func (f *Face) Blob() *Blob {
	if f.destroyed {
		return EmptyBlob()
	}
	return f.blob
}

// Index returns the index of the face within its blob.
func (f *Face) Index() int {
	return f.index
}

// NumGlyphs returns the number of glyphs, as stated in the maxp table.
func (f *Face) NumGlyphs() int {
	return f.numGlyphs
}

// CMap returns the character map of the face.
func (f *Face) CMap() *CMap {
	return f.cmap
}

// GlyphIndex returns the glyph for code-point r. The second result is false
// if r is not mapped by the font.
func (f *Face) GlyphIndex(r rune) (GlyphIndex, bool) {
	g := f.cmap.Lookup(r)
	if g == 0 || int(g) >= f.numGlyphs {
		return 0, false
	}
	return g, true
}

// VariationGlyphs returns the non-default variation sequence mappings of the
// font's cmap format 14 sub-table.
func (f *Face) VariationGlyphs() []UVSMapping {
	if f.cmap == nil {
		return nil
	}
	return f.cmap.uvs
}

// Table returns the raw bytes of the table tagged tag, or nil.
func (f *Face) Table(tag Tag) []byte {
	rec, ok := f.Record(tag)
	if !ok || f.destroyed {
		return nil
	}
	data := f.blob.Bytes()
	return data[rec.Offset : rec.Offset+rec.Length : rec.Offset+rec.Length]
}

// HasTable is true if the font contains a table tagged tag.
func (f *Face) HasTable(tag Tag) bool {
	_, ok := f.Record(tag)
	return ok
}

// Record returns the table directory entry for tag.
func (f *Face) Record(tag Tag) (TableRecord, bool) {
	i := sort.Search(len(f.records), func(k int) bool { return f.records[k].Tag >= tag })
	if i < len(f.records) && f.records[i].Tag == tag {
		return f.records[i], true
	}
	return TableRecord{}, false
}

// TableTags returns the tags of all tables in the font, in ascending order.
func (f *Face) TableTags() []Tag {
	tags := make([]Tag, len(f.records))
	for i, r := range f.records {
		tags[i] = r.Tag
	}
	return tags
}

// IsTrueType is true if the font carries TrueType outlines (glyf and loca).
func (f *Face) IsTrueType() bool {
	return f.loca.n > 0
}

// IsCFF is true if the font carries CFF outlines.
func (f *Face) IsCFF() bool {
	return f.sfntVersion == sfntOpenType || f.HasTable(T("CFF ")) || f.HasTable(T("CFF2"))
}

// Errors returns the problems found during parsing which make the face or
// one of its tables unusable.
func (f *Face) Errors() []FontError {
	return f.diag.filter(func(s Severity) bool { return s < SeverityWarning })
}

// Warnings returns the deviations from the format found during parsing.
func (f *Face) Warnings() []FontError {
	return f.diag.filter(func(s Severity) bool { return s == SeverityWarning })
}

// --- Parsing ---------------------------------------------------------------

func (f *Face) malformed(table Tag, section, issue string, offset uint32) error {
	f.diag.report(SeverityCritical, table, section, offset, "%s", issue)
	if table == 0 {
		return core.Error(core.EMALFORMED, "%s: %s", section, issue)
	}
	return core.Error(core.EMALFORMED, "table %s: %s", table, issue)
}

func (f *Face) parse() error {
	src := binarySegm(f.blob.Bytes())
	if len(src) < 12 {
		return f.malformed(0, "Header", fmt.Sprintf("font data too short (%d bytes)", len(src)), 0)
	}
	base := 0
	if binseg.U32(src) == sfntCollection {
		n := int(src.U32(8))
		if f.index < 0 || f.index >= n {
			return f.malformed(0, "Collection", fmt.Sprintf("face index %d out of range, collection has %d fonts", f.index, n), 0)
		}
		off, err := src.Uint32(12 + 4*f.index)
		if err != nil {
			return f.malformed(0, "Collection", "offset table truncated", 12)
		}
		base = int(off)
	} else if f.index != 0 {
		return f.malformed(0, "Header", fmt.Sprintf("face index %d out of range for single font", f.index), 0)
	}
	header, err := src.View(base, 12)
	if err != nil {
		return f.malformed(0, "Header", "offset table out of bounds", uint32(base))
	}
	f.sfntVersion = binseg.U32(header)
	if !(f.sfntVersion == sfntOpenType ||
		f.sfntVersion == sfntTrueType ||
		f.sfntVersion == sfntAppleTrue) {
		return f.malformed(0, "Header", fmt.Sprintf("font type not supported: %x", f.sfntVersion), uint32(base))
	}
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	n := int(binseg.U16(header[4:]))
	buf, err := src.View(base+12, 16*n)
	if err != nil {
		return f.malformed(0, "TableRecords", "table record entries", uint32(base+12))
	}
	f.records = make([]TableRecord, 0, n)
	for b, prev := buf, Tag(0); len(b) > 0; b = b[16:] {
		rec := TableRecord{Tag: MakeTag(b), Checksum: binseg.U32(b[4:]), Offset: binseg.U32(b[8:]), Length: binseg.U32(b[12:])}
		if rec.Tag < prev {
			return f.malformed(0, "TableRecords", "table order", uint32(base+12))
		}
		prev = rec.Tag
		if rec.Offset&3 != 0 { // "all tables must begin on four byte boundries"
			return f.malformed(rec.Tag, "Offset", "invalid table offset", rec.Offset)
		}
		if end := uint64(rec.Offset) + uint64(rec.Length); end > uint64(len(src)) {
			return f.malformed(rec.Tag, "Bounds",
				fmt.Sprintf("bounds [%d:%d] exceed font size %d", rec.Offset, end, len(src)), rec.Offset)
		}
		f.records = append(f.records, rec)
	}
	for _, tag := range RequiredTables {
		if !f.HasTable(T(tag)) {
			return f.malformed(T(tag), "Missing", "missing required table", 0)
		}
	}
	return f.parseRequired()
}

// parseRequired extracts the values from required tables which the rest of
// the engine relies on.
func (f *Face) parseRequired() error {
	maxp := binarySegm(f.Table(T("maxp")))
	if len(maxp) < 6 {
		return f.malformed(T("maxp"), "Size", "table too short", 0)
	}
	f.numGlyphs = int(binseg.U16(maxp[4:]))
	if f.numGlyphs == 0 {
		return f.malformed(T("maxp"), "NumGlyphs", "font has no glyphs", 0)
	}
	head := binarySegm(f.Table(T("head")))
	if len(head) < 54 {
		return f.malformed(T("head"), "Size", "table too short", 0)
	}
	if magic := binseg.U32(head[12:]); magic != 0x5F0F3CF5 {
		f.diag.warn(T("head"), 0, "bad magic number %x", magic)
	}
	hhea := binarySegm(f.Table(T("hhea")))
	if len(hhea) < 36 {
		return f.malformed(T("hhea"), "Size", "table too short", 0)
	}
	f.numHMetrics = int(binseg.U16(hhea[34:]))
	if f.numHMetrics == 0 || f.numHMetrics > f.numGlyphs {
		return f.malformed(T("hhea"), "NumberOfHMetrics",
			fmt.Sprintf("numberOfHMetrics %d invalid for %d glyphs", f.numHMetrics, f.numGlyphs), 0)
	}
	if hmtx := f.Table(T("hmtx")); len(hmtx) < 4*f.numHMetrics {
		return f.malformed(T("hmtx"), "Size", "table too short for numberOfHMetrics", 0)
	} else if len(hmtx) < 4*f.numHMetrics+2*(f.numGlyphs-f.numHMetrics) {
		f.diag.warn(T("hmtx"), 0, "left side bearings array truncated")
	}
	rec, _ := f.Record(T("cmap"))
	f.cmap = parseCMap(binarySegm(f.Table(T("cmap"))), rec.Offset, &f.diag)
	if f.HasTable(T("glyf")) {
		loca := f.Table(T("loca"))
		long := int16(binseg.U16(head[50:])) == 1
		size := 2
		if long {
			size = 4
		}
		if len(loca) < size*(f.numGlyphs+1) {
			f.diag.report(SeverityMajor, T("loca"), "Size", 0, "loca table missing or too short")
		} else {
			f.loca = glyphLocations{data: loca, long: long, n: f.numGlyphs}
		}
	}
	return nil
}
