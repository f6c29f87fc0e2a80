package alias

import "strings"

// Column is one source header and the field it resolved to, if any.
type Column struct {
	Index      int
	Header     string
	Field      Field
	Recognized bool
}

// Mapping is the resolution of a whole header row. It is computed once per
// file and applied to every data row.
type Mapping []Column

// Record holds one row's values keyed by canonical field.
type Record map[Field]string

func (r Record) Get(f Field) string {
	return r[f]
}

func MapHeaders(headers []string) Mapping {
	m := make(Mapping, len(headers))
	for i, h := range headers {
		f, ok := Resolve(h)
		m[i] = Column{Index: i, Header: h, Field: f, Recognized: ok}
	}
	return m
}

// Record applies the mapping to one row. Cells under unrecognized headers are
// dropped. When two columns resolve to the same field, a later non-empty cell
// wins over an earlier one.
func (m Mapping) Record(cells []string) Record {
	rec := make(Record, len(m))
	for _, col := range m {
		if !col.Recognized || col.Index >= len(cells) {
			continue
		}
		v := cells[col.Index]
		if _, seen := rec[col.Field]; seen && strings.TrimSpace(v) == "" {
			continue
		}
		rec[col.Field] = v
	}
	return rec
}

// Recognized counts the distinct fields the header row resolved to.
func (m Mapping) Recognized() int {
	seen := make(map[Field]bool)
	for _, col := range m {
		if col.Recognized {
			seen[col.Field] = true
		}
	}
	return len(seen)
}

// Ignored lists the non-empty headers that did not resolve.
func (m Mapping) Ignored() []string {
	var out []string
	for _, col := range m {
		if !col.Recognized && strings.TrimSpace(col.Header) != "" {
			out = append(out, col.Header)
		}
	}
	return out
}
