package serialize

import (
	"math/bits"
	"slices"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/npillmayer/otsubset/otface"
)

// tableSet collects the tables of the output font, keyed by tag. Iteration
// order is the tag order required for the table directory.
type tableSet struct {
	tables *treemap.Map
}

func newTableSet() *tableSet {
	return &tableSet{tables: treemap.NewWithIntComparator()}
}

func (ts *tableSet) put(tag otface.Tag, data []byte) {
	tracer().Debugf("output table %s: %d bytes", tag, len(data))
	ts.tables.Put(int(tag), data)
}

func (ts *tableSet) get(tag otface.Tag) []byte {
	if data, ok := ts.tables.Get(int(tag)); ok {
		return data.([]byte)
	}
	return nil
}

func (ts *tableSet) has(tag otface.Tag) bool {
	_, ok := ts.tables.Get(int(tag))
	return ok
}

func (ts *tableSet) tags() []otface.Tag {
	tags := make([]otface.Tag, 0, ts.tables.Size())
	for _, k := range ts.tables.Keys() {
		tags = append(tags, otface.Tag(k.(int)))
	}
	return tags
}

// Recommended order of table data in TrueType fonts, see
// https://docs.microsoft.com/en-us/typography/opentype/spec/recom#optimized-table-ordering
var ttTableOrder = map[string]int{
	"head": 95,
	"hhea": 90,
	"maxp": 85,
	"OS/2": 80,
	"hmtx": 75,
	"cmap": 55,
	"fpgm": 50,
	"prep": 45,
	"cvt ": 40,
	"loca": 35,
	"glyf": 30,
	"kern": 25,
	"name": 20,
	"post": 15,
	"gasp": 10,
}

const headTag = otface.Tag(0x68656164)

// write assembles an sfnt binary from the table set. Table records are
// sorted by tag, table data is laid out in the recommended order. The
// checkSumAdjustment field of the head table is updated in place.
func (ts *tableSet) write(scalerType uint32) []byte {
	records := ts.tags() // ascending by tag
	numTables := len(records)
	layout := slices.Clone(records)
	slices.SortStableFunc(layout, func(a, b otface.Tag) int {
		return ttTableOrder[b.String()] - ttTableOrder[a.String()]
	})
	if head := ts.get(headTag); len(head) >= 12 {
		putU32(head, 8, 0)
	}
	offsets := make(map[otface.Tag]uint32, numTables)
	offset := uint32(12 + 16*numTables)
	for _, tag := range layout {
		offsets[tag] = offset
		offset += 4 * ((uint32(len(ts.get(tag))) + 3) / 4)
	}
	out := make(buffer, 0, offset)
	entrySelector := bits.Len(uint(numTables)) - 1
	out.u32(scalerType)
	out.u16(uint16(numTables))
	out.u16(uint16(1 << (entrySelector + 4)))
	out.u16(uint16(entrySelector))
	out.u16(uint16(16 * (numTables - 1<<entrySelector)))
	for _, tag := range records {
		data := ts.get(tag)
		out.u32(uint32(tag))
		out.u32(checksum(data))
		out.u32(offsets[tag])
		out.u32(uint32(len(data)))
	}
	headAt := -1
	for _, tag := range layout {
		if tag == headTag {
			headAt = len(out)
		}
		out = append(out, ts.get(tag)...)
		out.pad4()
	}
	if headAt >= 0 && ts.has(headTag) && len(ts.get(headTag)) >= 12 {
		adj := 0xB1B0AFBA - checksum(out)
		putU32(out, headAt+8, adj)
		putU32(ts.get(headTag), 8, adj)
	}
	return out
}
