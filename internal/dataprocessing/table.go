package dataprocessing

import (
	"strings"

	perrors "govpanel/internal/errors"
)

// Table is a raw source relation: an ordered header and string rows.
// Every row is padded to the header width on construction.
type Table struct {
	Source string
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a table and its column index.
// Header cells are trimmed; on duplicate header names the first one wins.
func NewTable(source string, header []string, rows [][]string) *Table {
	t := &Table{
		Source: source,
		Header: make([]string, len(header)),
		Rows:   make([][]string, 0, len(rows)),
	}

	for i, h := range header {
		t.Header[i] = strings.TrimSpace(h)
	}

	width := len(t.Header)
	for _, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
	}

	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of a column, or -1
func (t *Table) Index(col string) int {
	if i, ok := t.index[col]; ok {
		return i
	}
	return -1
}

// Has reports whether a column exists
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Require fails with a schema error naming the first missing column
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return perrors.NewSchemaError(t.Source, c)
		}
	}
	return nil
}

// Rename renames columns in place; names not present are ignored
func (t *Table) Rename(mapping map[string]string) {
	for i, h := range t.Header {
		if to, ok := mapping[h]; ok {
			t.Header[i] = to
		}
	}
	t.reindex()
}

// RenameFunc applies fn to every header name
func (t *Table) RenameFunc(fn func(string) string) {
	for i, h := range t.Header {
		t.Header[i] = fn(h)
	}
	t.reindex()
}

// Value returns the trimmed cell of row r in column col, or "" when the column is absent
func (t *Table) Value(r int, col string) string {
	i := t.Index(col)
	if i < 0 || r < 0 || r >= len(t.Rows) {
		return ""
	}
	return strings.TrimSpace(t.Rows[r][i])
}

// Filter keeps the rows for which keep returns true
func (t *Table) Filter(keep func(r int) bool) int {
	kept := t.Rows[:0]
	dropped := 0
	for r := range t.Rows {
		if keep(r) {
			kept = append(kept, t.Rows[r])
		} else {
			dropped++
		}
	}
	t.Rows = kept
	return dropped
}
