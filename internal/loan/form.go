package loan

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// NormalizeGender lowercases a free-text gender value and repairs the one
// typo present in the training data.
func NormalizeGender(v string) string {
	v = strings.ToLower(v)
	if v == "fe male" {
		return "female"
	}
	return v
}

// FieldViolation is one form field outside its allowed domain.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormError lists every violated field of a rejected form submission.
type FormError struct {
	Row        int
	Violations []FieldViolation
}

func (e *FormError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("row %d: invalid applicant form: %s", e.Row, strings.Join(parts, "; "))
}

// Field returns the first offending field.
func (e *FormError) Field() string {
	if len(e.Violations) == 0 {
		return ""
	}
	return e.Violations[0].Field
}

// FormValidator checks applicant records against the input domains of the
// interactive form. It is safe for concurrent use.
type FormValidator struct {
	schema *gojsonschema.Schema
}

// NewFormValidator compiles the applicant form schema.
func NewFormValidator() (*FormValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(FormSchema()))
	if err != nil {
		return nil, fmt.Errorf("compile applicant form schema: %w", err)
	}
	return &FormValidator{schema: schema}, nil
}

// Validate checks a single record. Gender is compared after normalisation,
// so "Female" and "FE MALE" are accepted.
func (v *FormValidator) Validate(row int, record map[string]any) error {
	doc := make(map[string]any, len(record))
	for k, val := range record {
		doc[k] = val
	}
	if g, ok := doc[ColGender].(string); ok {
		doc[ColGender] = NormalizeGender(g)
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate applicant form: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]FieldViolation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if prop, ok := desc.Details()["property"].(string); ok && field == "(root)" {
			field = prop
		}
		violations = append(violations, FieldViolation{Field: field, Message: desc.Description()})
	}
	return &FormError{Row: row, Violations: violations}
}

// FormSchema returns the JSON Schema describing the applicant form domains.
func FormSchema() map[string]any {
	number := func(min, max *float64) map[string]any {
		p := map[string]any{"type": "number"}
		if min != nil {
			p["minimum"] = *min
		}
		if max != nil {
			p["maximum"] = *max
		}
		return p
	}
	enum := func(values []string) map[string]any {
		items := make([]any, len(values))
		for i, v := range values {
			items[i] = v
		}
		return map[string]any{"type": "string", "enum": items}
	}
	zero := Float64(0)

	income := number(zero, nil)
	income["type"] = []any{"number", "null"}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			ColAge:           number(Float64(1), Float64(100)),
			ColGender:        enum(Genders),
			ColEducation:     enum(EducationLevels),
			ColIncome:        income,
			ColEmpExp:        number(zero, nil),
			ColHomeOwnership: enum(HomeOwnerships),
			ColLoanAmount:    number(Float64(1000), Float64(100000)),
			ColLoanIntent:    enum(LoanIntents),
			ColInterestRate:  number(Float64(1), Float64(30)),
			ColPercentIncome: number(Float64(0.01), Float64(1)),
			ColCreditHistory: number(zero, nil),
			ColCreditScore:   number(Float64(300), Float64(850)),
			ColPriorDefaults: enum(PriorDefaultFlag),
		},
		"required": []any{
			ColAge, ColGender, ColEducation, ColIncome, ColEmpExp, ColHomeOwnership,
			ColLoanAmount, ColLoanIntent, ColInterestRate, ColPercentIncome,
			ColCreditHistory, ColCreditScore, ColPriorDefaults,
		},
	}
}
