// Package preprocess replays the fitted feature preprocessing of the loan
// scoring model: gender normalisation, batch-local outlier capping, income
// imputation, min-max scaling and categorical encoding.
//
// Every step takes a Frame and returns a new Frame. Cells are shared between
// frames and are never modified in place, so a Frame handed to a step stays
// valid after the step returns.
package preprocess

import (
	"fmt"
	"math"
	"strconv"
)

// CellKind tells what a Cell holds.
type CellKind uint8

const (
	Missing CellKind = iota
	Number
	Text
)

// Cell is one value of a Frame.
type Cell struct {
	Kind CellKind
	Num  float64
	Str  string
}

// Num returns a numeric cell. NaN is stored as a missing value.
func Num(v float64) Cell {
	if math.IsNaN(v) {
		return Cell{}
	}
	return Cell{Kind: Number, Num: v}
}

// Str returns a text cell.
func Str(s string) Cell { return Cell{Kind: Text, Str: s} }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.Kind == Missing }

// String spells the cell the way category vocabularies are written.
func (c Cell) String() string {
	switch c.Kind {
	case Number:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case Text:
		return c.Str
	default:
		return ""
	}
}

// Value returns the cell as nil, float64 or string.
func (c Cell) Value() any {
	switch c.Kind {
	case Number:
		return c.Num
	case Text:
		return c.Str
	default:
		return nil
	}
}

// Frame is a small column-oriented table.
type Frame struct {
	columns []string
	index   map[string]int
	data    [][]Cell
	rows    int
}

// NewFrame returns an empty frame with the given number of rows.
func NewFrame(rows int) *Frame {
	return &Frame{index: make(map[string]int), rows: rows}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Has reports whether the frame has a column.
func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Column returns the cells of a column. The slice must not be modified.
func (f *Frame) Column(col string) ([]Cell, bool) {
	i, ok := f.index[col]
	if !ok {
		return nil, false
	}
	return f.data[i], true
}

// Cell returns a single cell; a missing column reads as a missing cell.
func (f *Frame) Cell(col string, row int) Cell {
	cells, ok := f.Column(col)
	if !ok || row < 0 || row >= len(cells) {
		return Cell{}
	}
	return cells[row]
}

// Set replaces a column in place or appends it when absent. It panics if
// len(cells) differs from the row count.
func (f *Frame) Set(col string, cells []Cell) {
	if len(cells) != f.rows {
		panic(fmt.Sprintf("preprocess: column %q has %d cells, frame has %d rows", col, len(cells), f.rows))
	}
	if i, ok := f.index[col]; ok {
		f.data[i] = cells
		return
	}
	f.index[col] = len(f.columns)
	f.columns = append(f.columns, col)
	f.data = append(f.data, cells)
}

// Drop removes columns, keeping the order of the rest.
func (f *Frame) Drop(cols ...string) {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	columns := f.columns[:0:0]
	data := f.data[:0:0]
	for i, c := range f.columns {
		if drop[c] {
			continue
		}
		columns = append(columns, c)
		data = append(data, f.data[i])
	}
	f.columns = columns
	f.data = data
	f.index = make(map[string]int, len(columns))
	for i, c := range columns {
		f.index[c] = i
	}
}

// Clone returns a frame with its own column layout that shares cells with f.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		columns: append([]string(nil), f.columns...),
		index:   make(map[string]int, len(f.index)),
		data:    append([][]Cell(nil), f.data...),
		rows:    f.rows,
	}
	for k, v := range f.index {
		out.index[k] = v
	}
	return out
}

// Row returns one row as a field map.
func (f *Frame) Row(i int) map[string]any {
	row := make(map[string]any, len(f.columns))
	for j, c := range f.columns {
		row[c] = f.data[j][i].Value()
	}
	return row
}

// Matrix lays the frame out as a numeric feature matrix in the given feature
// order. With no feature names the frame's own column order is used. Columns
// not named in features are ignored.
func (f *Frame) Matrix(features []string) ([][]float64, error) {
	if len(features) == 0 {
		features = f.columns
	}
	cols := make([][]Cell, len(features))
	for j, name := range features {
		cells, ok := f.Column(name)
		if !ok {
			return nil, &SchemaMismatchError{Column: name, Row: -1, Reason: "feature expected by the model is missing"}
		}
		cols[j] = cells
	}

	out := make([][]float64, f.rows)
	for i := range out {
		row := make([]float64, len(features))
		for j, cells := range cols {
			c := cells[i]
			switch c.Kind {
			case Number:
				row[j] = c.Num
			case Text:
				return nil, &TypeMismatchError{Column: features[j], Row: i, Value: c.Str}
			default:
				return nil, &SchemaMismatchError{Column: features[j], Row: i, Reason: "missing value"}
			}
		}
		out[i] = row
	}
	return out, nil
}
