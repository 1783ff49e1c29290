package preprocess

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanscore/internal/loan"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	scaler := &MinMaxScaler{
		Columns: loan.NumericalColumns,
		DataMin: []float64{20, 8000, 0, 500, 5.42, 0, 2, 390},
		DataMax: []float64{144, 7200766, 125, 35000, 20, 0.66, 30, 850},
	}
	oneHot := &OneHotEncoder{
		Columns: loan.NominalColumns,
		Categories: [][]string{
			{"female", "male"},
			{"MORTGAGE", "OTHER", "OWN", "RENT"},
			{"DEBTCONSOLIDATION", "EDUCATION", "HOMEIMPROVEMENT", "MEDICAL", "PERSONAL", "VENTURE"},
			{"No", "Yes"},
		},
	}
	ordinal := &OrdinalEncoder{Column: loan.ColEducation, Categories: loan.EducationLevels}
	roles := Roles{
		Numerical:       loan.NumericalColumns,
		Categorical:     append(append([]string(nil), loan.NominalColumns...), loan.ColEducation),
		NonHierarchical: loan.NominalColumns,
		Hierarchical:    loan.ColEducation,
	}
	p, err := NewPipeline(scaler, oneHot, ordinal, roles)
	require.NoError(t, err)
	return p
}

func TestPipeline_SingleRecord(t *testing.T) {
	p := testPipeline(t)

	out, err := p.Run(Record(loan.SampleApproved.Record()))
	require.NoError(t, err)

	cols := out.Columns()
	require.Len(t, cols, 9+2+4+6+2)
	assert.Equal(t, []string{
		loan.ColAge, loan.ColEducation, loan.ColIncome, loan.ColEmpExp, loan.ColLoanAmount,
		loan.ColInterestRate, loan.ColPercentIncome, loan.ColCreditHistory, loan.ColCreditScore,
	}, cols[:9])
	assert.Equal(t, "person_gender_female", cols[9])

	assert.Equal(t, 3.0, out.Cell(loan.ColEducation, 0).Num)
	assert.InDelta(t, 0.49/0.66, out.Cell(loan.ColPercentIncome, 0).Num, 1e-12)
	assert.InDelta(t, (22.0-20)/124, out.Cell(loan.ColAge, 0).Num, 1e-12)
	assert.Equal(t, 1.0, out.Cell("person_home_ownership_RENT", 0).Num)
	assert.Equal(t, 1.0, out.Cell("loan_intent_PERSONAL", 0).Num)
	assert.Equal(t, 0.0, out.Cell("previous_loan_defaults_on_file_Yes", 0).Num)

	_, err = out.Matrix(nil)
	assert.NoError(t, err)
}

func TestPipeline_GenderTypo(t *testing.T) {
	p := testPipeline(t)
	rec := loan.SampleRejected.Record()
	rec[loan.ColGender] = "FE MALE"

	out, err := p.Run(Record(rec))
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Cell("person_gender_female", 0).Num)
	assert.Equal(t, 0.0, out.Cell("person_gender_male", 0).Num)
}

func TestPipeline_IncomeImputedToBatchMedian(t *testing.T) {
	p := testPipeline(t)
	batch := make(Batch, 3)
	for i, income := range []*float64{loan.Float64(10000), nil, loan.Float64(30000)} {
		a := loan.SampleApproved
		a.Income = income
		batch[i] = Record(a.Record())
	}

	out, err := p.Run(batch)
	require.NoError(t, err)
	want := (20000.0 - 8000) / (7200766 - 8000)
	assert.InDelta(t, want, out.Cell(loan.ColIncome, 1).Num, 1e-12)
}

func TestPipeline_Errors(t *testing.T) {
	p := testPipeline(t)

	t.Run("unknown home ownership", func(t *testing.T) {
		rec := loan.SampleApproved.Record()
		rec[loan.ColHomeOwnership] = "SPACESHIP"
		_, err := p.Run(Record(rec))
		var catErr *UnknownCategoryError
		require.True(t, errors.As(err, &catErr), "got %v", err)
		assert.Equal(t, loan.ColHomeOwnership, catErr.Column)
		assert.Equal(t, "SPACESHIP", catErr.Value)
	})

	t.Run("missing numerical column", func(t *testing.T) {
		rec := loan.SampleApproved.Record()
		delete(rec, loan.ColCreditScore)
		_, err := p.Run(Record(rec))
		var schemaErr *SchemaMismatchError
		require.True(t, errors.As(err, &schemaErr), "got %v", err)
		assert.Equal(t, loan.ColCreditScore, schemaErr.Column)
	})

	t.Run("non-numeric loan amount", func(t *testing.T) {
		rec := loan.SampleApproved.Record()
		rec[loan.ColLoanAmount] = "lots"
		_, err := p.Run(Record(rec))
		var typeErr *TypeMismatchError
		require.True(t, errors.As(err, &typeErr), "got %v", err)
		assert.Equal(t, loan.ColLoanAmount, typeErr.Field())
	})

	t.Run("missing age value", func(t *testing.T) {
		rec := loan.SampleApproved.Record()
		rec[loan.ColAge] = nil
		_, err := p.Run(Record(rec))
		var schemaErr *SchemaMismatchError
		require.True(t, errors.As(err, &schemaErr), "got %v", err)
		assert.Equal(t, 0, schemaErr.Row)
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := p.Run(Batch{})
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	nonFinite := []struct {
		name  string
		col   string
		value any
	}{
		{"infinite age text", loan.ColAge, "Inf"},
		{"negative infinity text", loan.ColCreditScore, "-Infinity"},
		{"nan income text", loan.ColIncome, "NaN"},
		{"infinite float", loan.ColLoanAmount, math.Inf(1)},
		{"nan float income", loan.ColIncome, math.NaN()},
	}
	for _, tc := range nonFinite {
		t.Run(tc.name, func(t *testing.T) {
			rec := loan.SampleApproved.Record()
			rec[tc.col] = tc.value
			_, err := p.Run(Record(rec))
			var typeErr *TypeMismatchError
			require.True(t, errors.As(err, &typeErr), "got %v", err)
			assert.Equal(t, tc.col, typeErr.Column)
			assert.Equal(t, 0, typeErr.Row)
		})
	}
}

func TestRoles_Validate(t *testing.T) {
	good := Roles{
		Numerical:       []string{"n"},
		Categorical:     []string{"a", "b", "h"},
		NonHierarchical: []string{"a", "b"},
		Hierarchical:    "h",
	}
	require.NoError(t, good.Validate())

	tests := []struct {
		name  string
		roles Roles
	}{
		{"hierarchical also nominal", Roles{Categorical: []string{"a", "h"}, NonHierarchical: []string{"a", "h"}, Hierarchical: "h"}},
		{"categorical has extra", Roles{Categorical: []string{"a", "x", "h"}, NonHierarchical: []string{"a"}, Hierarchical: "h"}},
		{"role outside categorical", Roles{Categorical: []string{"a", "h"}, NonHierarchical: []string{"b"}, Hierarchical: "h"}},
		{"numerical overlaps", Roles{Numerical: []string{"a"}, Categorical: []string{"a", "h"}, NonHierarchical: []string{"a"}, Hierarchical: "h"}},
		{"no hierarchical column", Roles{Categorical: []string{"a"}, NonHierarchical: []string{"a"}, Hierarchical: ""}},
		{"blank hierarchical column", Roles{Categorical: []string{"a", " "}, NonHierarchical: []string{"a"}, Hierarchical: " "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.roles.Validate())
		})
	}
}
