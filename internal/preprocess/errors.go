package preprocess

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when an input carries no rows.
var ErrEmptyInput = errors.New("preprocess: input has no rows")

// FieldError is implemented by errors that can point at the offending field.
type FieldError interface {
	error
	Field() string
}

// SchemaMismatchError reports a required column that is absent, or a missing
// value in a column that is never imputed. Row is -1 when the whole column
// is concerned.
type SchemaMismatchError struct {
	Column string
	Row    int
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("schema mismatch: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("schema mismatch: column %q row %d: %s", e.Column, e.Row, e.Reason)
}

func (e *SchemaMismatchError) Field() string { return e.Column }

// TypeMismatchError reports non-numeric content in a numerical column.
type TypeMismatchError struct {
	Column string
	Row    int
	Value  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: column %q row %d: %q is not a number", e.Column, e.Row, e.Value)
}

func (e *TypeMismatchError) Field() string { return e.Column }

// UnknownCategoryError reports a categorical value outside the vocabulary the
// encoder was fitted on.
type UnknownCategoryError struct {
	Column string
	Row    int
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category: column %q row %d: %q", e.Column, e.Row, e.Value)
}

func (e *UnknownCategoryError) Field() string { return e.Column }
