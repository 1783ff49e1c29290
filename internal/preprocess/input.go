package preprocess

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Input is either a single Record or a Batch of records.
type Input interface {
	batch() Batch
}

// Record is one applicant row keyed by column name.
type Record map[string]any

// Batch is an ordered set of records scored together.
type Batch []Record

func (r Record) batch() Batch { return Batch{r} }

func (b Batch) batch() Batch { return b }

// AsBatch normalises any Input to a Batch.
func AsBatch(in Input) Batch {
	if in == nil {
		return nil
	}
	return in.batch()
}

// ErrNotApplicant is returned by ParseJSON for JSON that is neither an
// object nor an array.
var ErrNotApplicant = errors.New("input must be an applicant object or an array of applicants")

// ParseJSON decodes a single applicant object into a Record, or an array of
// objects into a Batch. Numbers are kept as json.Number so that integers
// survive unchanged.
func ParseJSON(data []byte) (Input, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", ErrNotApplicant)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	switch data[0] {
	case '{':
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		return rec, nil
	case '[':
		var b Batch
		if err := dec.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, ErrNotApplicant
	}
}

// FrameOf lays an input out as a Frame. Columns listed in order come first
// when present; any other columns follow sorted by name. A column absent from
// some records reads as missing in those rows.
func FrameOf(in Input, order []string) (*Frame, error) {
	b := AsBatch(in)
	if len(b) == 0 {
		return nil, ErrEmptyInput
	}

	seen := make(map[string]bool)
	for _, rec := range b {
		for k := range rec {
			seen[k] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for _, c := range order {
		if seen[c] {
			columns = append(columns, c)
			delete(seen, c)
		}
	}
	rest := make([]string, 0, len(seen))
	for c := range seen {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	columns = append(columns, rest...)

	f := NewFrame(len(b))
	for _, col := range columns {
		cells := make([]Cell, len(b))
		for i, rec := range b {
			cells[i] = toCell(rec[col])
		}
		f.Set(col, cells)
	}
	return f, nil
}

func toCell(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{}
	case Cell:
		return x
	case float64:
		return number(x)
	case float32:
		return number(float64(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Num(cast.ToFloat64(x))
	case *float64:
		if x == nil {
			return Cell{}
		}
		return number(*x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return number(f)
		}
		return Str(x.String())
	case string:
		return Str(x)
	case bool:
		return Str(strconv.FormatBool(x))
	default:
		return Str(fmt.Sprint(x))
	}
}

// number keeps NaN and infinities as text, so that numerical columns reject
// them instead of reading NaN as missing.
func number(v float64) Cell {
	if !isFinite(v) {
		return Str(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return Num(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// numericCells returns a numerical column with numeric strings converted.
// Missing cells stay missing; "NaN" and "Inf" spellings are type mismatches.
func numericCells(f *Frame, col string) ([]Cell, error) {
	cells, ok := f.Column(col)
	if !ok {
		return nil, &SchemaMismatchError{Column: col, Row: -1, Reason: "numerical column is missing"}
	}
	out := make([]Cell, len(cells))
	for i, c := range cells {
		switch c.Kind {
		case Missing:
			out[i] = c
			continue
		case Number:
			if !isFinite(c.Num) {
				return nil, &TypeMismatchError{Column: col, Row: i, Value: strconv.FormatFloat(c.Num, 'g', -1, 64)}
			}
			out[i] = c
			continue
		}
		s := strings.TrimSpace(c.Str)
		if s == "" {
			return nil, &TypeMismatchError{Column: col, Row: i, Value: c.Str}
		}
		v, err := cast.ToFloat64E(s)
		if err != nil || !isFinite(v) {
			return nil, &TypeMismatchError{Column: col, Row: i, Value: c.Str}
		}
		out[i] = Num(v)
	}
	return out, nil
}
