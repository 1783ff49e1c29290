package ml

import (
	"errors"

	"loanscore/internal/artifact"
	"loanscore/internal/loan"
	"loanscore/internal/preprocess"
)

// Error kinds used as metric labels and in API responses.
const (
	KindSchemaMismatch  = "schema_mismatch"
	KindTypeMismatch    = "type_mismatch"
	KindUnknownCategory = "unknown_category"
	KindEmptyInput      = "empty_input"
	KindInvalidForm     = "invalid_form"
	KindArtifact        = "artifact"
	KindInference       = "inference"
	KindInternal        = "internal"
)

// ErrorKind classifies an error returned by a Predictor.
func ErrorKind(err error) string {
	var (
		schemaErr *preprocess.SchemaMismatchError
		typeErr   *preprocess.TypeMismatchError
		catErr    *preprocess.UnknownCategoryError
		formErr   *loan.FormError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &catErr):
		return KindUnknownCategory
	case errors.As(err, &typeErr):
		return KindTypeMismatch
	case errors.As(err, &schemaErr):
		return KindSchemaMismatch
	case errors.As(err, &formErr):
		return KindInvalidForm
	case errors.Is(err, preprocess.ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, artifact.ErrArtifactNotFound), errors.Is(err, artifact.ErrArtifactCorrupt):
		return KindArtifact
	case errors.Is(err, ErrInference):
		return KindInference
	default:
		return KindInternal
	}
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the artifacts or the model.
func IsInputError(err error) bool {
	switch ErrorKind(err) {
	case KindSchemaMismatch, KindTypeMismatch, KindUnknownCategory, KindEmptyInput, KindInvalidForm:
		return true
	}
	return false
}
