package preprocess

import (
	"fmt"
)

// Unknown-category policies, spelled as the fitting library stores them.
const (
	HandleUnknownError           = "error"
	HandleUnknownIgnore          = "ignore"
	HandleUnknownUseEncodedValue = "use_encoded_value"
)

// OneHotEncoder replaces nominal columns by one indicator column per known
// category. Unknown categories are rejected unless HandleUnknown is
// "ignore", in which case the row gets an all-zero indicator block.
type OneHotEncoder struct {
	Columns       []string   `json:"columns"`
	Categories    [][]string `json:"categories"`
	HandleUnknown string     `json:"handle_unknown,omitempty"`
}

// Validate checks the fitted vocabulary.
func (e *OneHotEncoder) Validate() error {
	if len(e.Categories) != len(e.Columns) {
		return fmt.Errorf("one-hot encoder: %d columns but %d category lists", len(e.Columns), len(e.Categories))
	}
	switch e.HandleUnknown {
	case "", HandleUnknownError, HandleUnknownIgnore:
	default:
		return fmt.Errorf("one-hot encoder: unsupported handle_unknown %q", e.HandleUnknown)
	}
	for j, col := range e.Columns {
		if err := checkVocabulary(col, e.Categories[j]); err != nil {
			return fmt.Errorf("one-hot encoder: %w", err)
		}
	}
	return nil
}

// FeatureNames returns the indicator column names in output order.
func (e *OneHotEncoder) FeatureNames() []string {
	var names []string
	for j, col := range e.Columns {
		for _, cat := range e.Categories[j] {
			names = append(names, col+"_"+cat)
		}
	}
	return names
}

// Transform drops the encoded columns and appends their indicator columns.
func (e *OneHotEncoder) Transform(f *Frame) (*Frame, error) {
	blocks := make([][][]Cell, len(e.Columns))
	for j, col := range e.Columns {
		cells, ok := f.Column(col)
		if !ok {
			return nil, &SchemaMismatchError{Column: col, Row: -1, Reason: "categorical column is missing"}
		}
		cats := e.Categories[j]
		lookup := indexOf(cats)

		block := make([][]Cell, len(cats))
		for k := range block {
			block[k] = make([]Cell, f.Len())
			for i := range block[k] {
				block[k][i] = Num(0)
			}
		}
		for i, c := range cells {
			if c.IsMissing() {
				return nil, &SchemaMismatchError{Column: col, Row: i, Reason: "missing value"}
			}
			k, known := lookup[c.String()]
			if !known {
				if e.HandleUnknown == HandleUnknownIgnore {
					continue
				}
				return nil, &UnknownCategoryError{Column: col, Row: i, Value: c.String()}
			}
			block[k][i] = Num(1)
		}
		blocks[j] = block
	}

	out := f.Clone()
	out.Drop(e.Columns...)
	for j, col := range e.Columns {
		for k, cat := range e.Categories[j] {
			out.Set(col+"_"+cat, blocks[j][k])
		}
	}
	return out, nil
}

// InverseTransform reads the indicator columns back into categories. A row
// whose indicators are all zero decodes to "".
func (e *OneHotEncoder) InverseTransform(f *Frame) (map[string][]string, error) {
	decoded := make(map[string][]string, len(e.Columns))
	for j, col := range e.Columns {
		values := make([]string, f.Len())
		for _, cat := range e.Categories[j] {
			name := col + "_" + cat
			cells, ok := f.Column(name)
			if !ok {
				return nil, &SchemaMismatchError{Column: name, Row: -1, Reason: "indicator column is missing"}
			}
			for i, c := range cells {
				if c.Kind == Number && c.Num == 1 {
					values[i] = cat
				}
			}
		}
		decoded[col] = values
	}
	return decoded, nil
}

// OrdinalEncoder replaces the hierarchical column by the rank of its value
// in Categories, keeping the column name and position.
type OrdinalEncoder struct {
	Column        string   `json:"column"`
	Categories    []string `json:"categories"`
	HandleUnknown string   `json:"handle_unknown,omitempty"`
	UnknownValue  *float64 `json:"unknown_value,omitempty"`
}

// Validate checks the fitted rank order.
func (e *OrdinalEncoder) Validate() error {
	if e.Column == "" {
		return fmt.Errorf("ordinal encoder: column is empty")
	}
	switch e.HandleUnknown {
	case "", HandleUnknownError:
	case HandleUnknownUseEncodedValue:
		if e.UnknownValue == nil {
			return fmt.Errorf("ordinal encoder: handle_unknown %q needs unknown_value", e.HandleUnknown)
		}
	default:
		return fmt.Errorf("ordinal encoder: unsupported handle_unknown %q", e.HandleUnknown)
	}
	if err := checkVocabulary(e.Column, e.Categories); err != nil {
		return fmt.Errorf("ordinal encoder: %w", err)
	}
	return nil
}

// Rank returns the position of a category in the fitted order.
func (e *OrdinalEncoder) Rank(category string) (int, bool) {
	for i, c := range e.Categories {
		if c == category {
			return i, true
		}
	}
	return -1, false
}

// Transform encodes the hierarchical column in place.
func (e *OrdinalEncoder) Transform(f *Frame) (*Frame, error) {
	cells, ok := f.Column(e.Column)
	if !ok {
		return nil, &SchemaMismatchError{Column: e.Column, Row: -1, Reason: "hierarchical column is missing"}
	}
	encoded := make([]Cell, len(cells))
	for i, c := range cells {
		if c.IsMissing() {
			return nil, &SchemaMismatchError{Column: e.Column, Row: i, Reason: "missing value"}
		}
		rank, known := e.Rank(c.String())
		switch {
		case known:
			encoded[i] = Num(float64(rank))
		case e.HandleUnknown == HandleUnknownUseEncodedValue:
			encoded[i] = Num(*e.UnknownValue)
		default:
			return nil, &UnknownCategoryError{Column: e.Column, Row: i, Value: c.String()}
		}
	}
	out := f.Clone()
	out.Set(e.Column, encoded)
	return out, nil
}

func checkVocabulary(col string, cats []string) error {
	if len(cats) == 0 {
		return fmt.Errorf("column %q has no categories", col)
	}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		if seen[c] {
			return fmt.Errorf("column %q lists category %q twice", col, c)
		}
		seen[c] = true
	}
	return nil
}

func indexOf(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[v] = i
	}
	return m
}
