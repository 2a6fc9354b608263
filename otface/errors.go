package otface

import "fmt"

// Severity ranks problems found while parsing a face.
type Severity uint8

const (
	SeverityCritical Severity = iota // the face cannot be used
	SeverityMajor                    // a table is unusable, subsetting may lose data
	SeverityWarning                  // the face deviates from the format, but is usable
)

var severityNames = [...]string{"CRITICAL", "MAJOR", "WARNING"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// FontError is a problem of a face, located by table and section.
// Offset is relative to the start of the blob, or 0 if not known.
type FontError struct {
	Table    Tag // 0 for the font header
	Section  string
	Issue    string
	Severity Severity
	Offset   uint32
}

func (e FontError) Error() string {
	where := "sfnt"
	if e.Table != 0 {
		where = e.Table.String()
	}
	if e.Section != "" {
		where += "/" + e.Section
	}
	if e.Offset == 0 {
		return fmt.Sprintf("[%s] %s: %s", e.Severity, where, e.Issue)
	}
	return fmt.Sprintf("[%s] %s @%d: %s", e.Severity, where, e.Offset, e.Issue)
}

// diagnostics collects the problems found while parsing a face.
type diagnostics []FontError

func (d *diagnostics) report(sev Severity, table Tag, section string, offset uint32, format string, v ...any) {
	e := FontError{
		Table:    table,
		Section:  section,
		Issue:    fmt.Sprintf(format, v...),
		Severity: sev,
		Offset:   offset,
	}
	tracer().Debugf("face: %v", e)
	*d = append(*d, e)
}

func (d *diagnostics) warn(table Tag, offset uint32, format string, v ...any) {
	d.report(SeverityWarning, table, "", offset, format, v...)
}

// filter returns the problems for which keep is true.
func (d diagnostics) filter(keep func(Severity) bool) []FontError {
	var out []FontError
	for _, e := range d {
		if keep(e.Severity) {
			out = append(out, e)
		}
	}
	return out
}
