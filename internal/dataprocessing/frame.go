package dataprocessing

import (
	"slices"
	"strings"
)

// RawFrame is an untyped table of string cells as read from a source file.
// Rows may be shorter than Columns; missing cells read as "".
type RawFrame struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of a column, or -1.
func (f *RawFrame) Index(column string) int {
	return slices.Index(f.Columns, column)
}

// Has reports whether a column is present.
func (f *RawFrame) Has(column string) bool {
	return f.Index(column) >= 0
}

// Len returns the number of rows.
func (f *RawFrame) Len() int {
	return len(f.Rows)
}

// Value returns the trimmed cell at row i in the named column. Unknown
// columns and short rows yield "".
func (f *RawFrame) Value(i int, column string) string {
	idx := f.Index(column)
	if idx < 0 || i < 0 || i >= len(f.Rows) || idx >= len(f.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(f.Rows[i][idx])
}

// Select returns a frame restricted to the given columns, in the given order.
// Columns absent from the frame are skipped without error.
func (f *RawFrame) Select(columns []string) *RawFrame {
	var keep []int
	out := &RawFrame{}
	for _, c := range columns {
		if idx := f.Index(c); idx >= 0 {
			keep = append(keep, idx)
			out.Columns = append(out.Columns, c)
		}
	}

	out.Rows = make([][]string, 0, len(f.Rows))
	for _, row := range f.Rows {
		projected := make([]string, len(keep))
		for j, idx := range keep {
			if idx < len(row) {
				projected[j] = row[idx]
			}
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}

// Rename returns a frame whose column names are mapped through names.
// Columns not present in names keep their name.
func (f *RawFrame) Rename(names map[string]string) *RawFrame {
	out := &RawFrame{
		Columns: make([]string, len(f.Columns)),
		Rows:    f.Rows,
	}
	for i, c := range f.Columns {
		if renamed, ok := names[c]; ok {
			out.Columns[i] = renamed
		} else {
			out.Columns[i] = c
		}
	}
	return out
}

// DropWhereEmpty returns a frame without the rows whose cell in column is
// blank, and the number of rows dropped. A missing column drops nothing.
func (f *RawFrame) DropWhereEmpty(column string) (*RawFrame, int) {
	idx := f.Index(column)
	if idx < 0 {
		return f, 0
	}

	out := &RawFrame{Columns: f.Columns, Rows: make([][]string, 0, len(f.Rows))}
	for _, row := range f.Rows {
		if idx < len(row) && strings.TrimSpace(row[idx]) != "" {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, len(f.Rows) - len(out.Rows)
}
