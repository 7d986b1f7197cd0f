package dataprocessing

import (
	"sort"
)

// Key identifies a panel row
type Key struct {
	Code string
	Year int
}

// Less orders keys by country code, then year
func (k Key) Less(o Key) bool {
	if k.Code != o.Code {
		return k.Code < o.Code
	}
	return k.Year < o.Year
}

// LongRow is one melted observation: the id column values, the name of the
// melted column and its raw cell
type LongRow struct {
	ID       []string
	Variable string
	Raw      string
}

// Melt turns the valueCols of t into long rows keyed by idCols.
// Output follows input row order, then valueCols order.
func Melt(t *Table, idCols, valueCols []string) []LongRow {
	idIdx := make([]int, len(idCols))
	for i, c := range idCols {
		idIdx[i] = t.Index(c)
	}

	valIdx := make([]int, 0, len(valueCols))
	valNames := make([]string, 0, len(valueCols))
	for _, c := range valueCols {
		if i := t.Index(c); i >= 0 {
			valIdx = append(valIdx, i)
			valNames = append(valNames, c)
		}
	}

	out := make([]LongRow, 0, len(t.Rows)*len(valIdx))
	for _, row := range t.Rows {
		id := make([]string, len(idIdx))
		for i, idx := range idIdx {
			if idx >= 0 {
				id[i] = row[idx]
			}
		}
		for j, idx := range valIdx {
			out = append(out, LongRow{ID: id, Variable: valNames[j], Raw: row[idx]})
		}
	}

	return out
}

// Observation is one (key, column, value) triple fed to a pivot
type Observation struct {
	Key    Key
	Column string
	Value  Cell
}

// Wide is the result of a pivot: one row per key, one column per category
type Wide struct {
	Keys    []Key
	Columns []string

	cells map[Key]map[string]Cell
}

// PivotFirst spreads observations into a wide table.
// For duplicate (key, column) pairs the first non-missing value in input
// order wins and later ones are discarded. Keys keep first-seen order;
// columns are sorted.
func PivotFirst(obs []Observation) *Wide {
	w := &Wide{cells: make(map[Key]map[string]Cell)}
	seenCol := make(map[string]struct{})

	for _, o := range obs {
		row, ok := w.cells[o.Key]
		if !ok {
			row = make(map[string]Cell)
			w.cells[o.Key] = row
			w.Keys = append(w.Keys, o.Key)
		}

		if _, ok := seenCol[o.Column]; !ok {
			seenCol[o.Column] = struct{}{}
			w.Columns = append(w.Columns, o.Column)
		}

		if !o.Value.Valid {
			continue
		}
		if existing, ok := row[o.Column]; ok && existing.Valid {
			continue
		}
		row[o.Column] = o.Value
	}

	sort.Strings(w.Columns)
	return w
}

// Get returns the cell at key/column; absent cells are missing
func (w *Wide) Get(k Key, col string) Cell {
	if row, ok := w.cells[k]; ok {
		return row[col]
	}
	return Missing
}

// Has reports whether the key has a row
func (w *Wide) Has(k Key) bool {
	_, ok := w.cells[k]
	return ok
}

// HasColumn reports whether a column exists
func (w *Wide) HasColumn(col string) bool {
	for _, c := range w.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// RenameColumn renames a column in place, keeping its position
func (w *Wide) RenameColumn(from, to string) {
	found := false
	for i, c := range w.Columns {
		if c == from {
			w.Columns[i] = to
			found = true
		}
	}
	if !found {
		return
	}

	for _, row := range w.cells {
		if v, ok := row[from]; ok {
			delete(row, from)
			row[to] = v
		}
	}
}

// SortKeys orders keys by code then year
func (w *Wide) SortKeys() {
	sort.SliceStable(w.Keys, func(i, j int) bool { return w.Keys[i].Less(w.Keys[j]) })
}

// Len returns the number of rows
func (w *Wide) Len() int {
	return len(w.Keys)
}
