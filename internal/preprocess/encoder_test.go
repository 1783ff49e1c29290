package preprocess

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanscore/internal/loan"
)

func TestMinMaxScaler_Bounds(t *testing.T) {
	s := &MinMaxScaler{
		Columns: []string{loan.ColAge, loan.ColCreditScore},
		DataMin: []float64{20, 390},
		DataMax: []float64{144, 850},
	}
	require.NoError(t, s.Validate())

	f := frameOf(t, Batch{
		{loan.ColAge: 20.0, loan.ColCreditScore: 850.0},
		{loan.ColAge: 144.0, loan.ColCreditScore: 390.0},
		{loan.ColAge: 82.0, loan.ColCreditScore: 620.0},
	})
	out, err := s.Transform(f)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0, 1, 0.5}, numbers(t, out, loan.ColAge), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0, 0.5}, numbers(t, out, loan.ColCreditScore), 1e-12)
}

func TestMinMaxScaler_NoClamping(t *testing.T) {
	s := &MinMaxScaler{
		Columns: []string{loan.ColAge},
		DataMin: []float64{20},
		DataMax: []float64{70},
	}
	f := frameOf(t, Batch{{loan.ColAge: 10.0}, {loan.ColAge: 120.0}})
	out, err := s.Transform(f)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.2, 2}, numbers(t, out, loan.ColAge), 1e-12)
}

func TestMinMaxScaler_FeatureRangeAndConstantColumn(t *testing.T) {
	s := &MinMaxScaler{
		Columns:      []string{loan.ColAge, loan.ColEmpExp},
		DataMin:      []float64{0, 5},
		DataMax:      []float64{10, 5},
		FeatureRange: [2]float64{-1, 1},
	}
	require.NoError(t, s.Validate())
	f := frameOf(t, Record{loan.ColAge: 5.0, loan.ColEmpExp: 5.0})
	out, err := s.Transform(f)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out.Cell(loan.ColAge, 0).Num, 1e-12)
	assert.InDelta(t, -1.0, out.Cell(loan.ColEmpExp, 0).Num, 1e-12)
}

func TestMinMaxScaler_Validate(t *testing.T) {
	tests := []struct {
		name   string
		scaler MinMaxScaler
	}{
		{"length mismatch", MinMaxScaler{Columns: []string{"a"}, DataMin: []float64{0}}},
		{"min above max", MinMaxScaler{Columns: []string{"a"}, DataMin: []float64{2}, DataMax: []float64{1}}},
		{"bad range", MinMaxScaler{Columns: []string{"a"}, DataMin: []float64{0}, DataMax: []float64{1}, FeatureRange: [2]float64{1, 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.scaler.Validate())
		})
	}
}

func TestMinMaxScaler_MissingValue(t *testing.T) {
	s := &MinMaxScaler{Columns: []string{loan.ColAge}, DataMin: []float64{0}, DataMax: []float64{1}}
	f := frameOf(t, Batch{{loan.ColAge: 0.5}, {loan.ColAge: nil}})
	_, err := s.Transform(f)
	var schemaErr *SchemaMismatchError
	require.True(t, errors.As(err, &schemaErr), "got %v", err)
	assert.Equal(t, 1, schemaErr.Row)
}

func homeEncoder() *OneHotEncoder {
	return &OneHotEncoder{
		Columns:    []string{loan.ColHomeOwnership, loan.ColPriorDefaults},
		Categories: [][]string{{"MORTGAGE", "OTHER", "OWN", "RENT"}, {"No", "Yes"}},
	}
}

func TestOneHotEncoder_ExactlyOneAndDecode(t *testing.T) {
	enc := homeEncoder()
	require.NoError(t, enc.Validate())

	in := Batch{
		{loan.ColAge: 1.0, loan.ColHomeOwnership: "RENT", loan.ColPriorDefaults: "No"},
		{loan.ColAge: 2.0, loan.ColHomeOwnership: "OWN", loan.ColPriorDefaults: "Yes"},
		{loan.ColAge: 3.0, loan.ColHomeOwnership: "MORTGAGE", loan.ColPriorDefaults: "No"},
	}
	out, err := enc.Transform(frameOf(t, in))
	require.NoError(t, err)

	assert.Equal(t, append([]string{loan.ColAge}, enc.FeatureNames()...), out.Columns())
	assert.False(t, out.Has(loan.ColHomeOwnership))

	for j, col := range enc.Columns {
		for i := range in {
			ones := 0
			for _, cat := range enc.Categories[j] {
				v := out.Cell(col+"_"+cat, i).Num
				assert.True(t, v == 0 || v == 1)
				if v == 1 {
					ones++
				}
			}
			assert.Equal(t, 1, ones, "%s row %d", col, i)
		}
	}

	decoded, err := enc.InverseTransform(out)
	require.NoError(t, err)
	for i, rec := range in {
		assert.Equal(t, rec[loan.ColHomeOwnership], decoded[loan.ColHomeOwnership][i])
		assert.Equal(t, rec[loan.ColPriorDefaults], decoded[loan.ColPriorDefaults][i])
	}
}

func TestOneHotEncoder_UnknownCategory(t *testing.T) {
	f := frameOf(t, Record{loan.ColHomeOwnership: "SPACESHIP", loan.ColPriorDefaults: "No"})

	_, err := homeEncoder().Transform(f)
	var catErr *UnknownCategoryError
	require.True(t, errors.As(err, &catErr), "got %v", err)
	assert.Equal(t, loan.ColHomeOwnership, catErr.Column)
	assert.Equal(t, "SPACESHIP", catErr.Value)
	assert.Equal(t, loan.ColHomeOwnership, catErr.Field())

	ignore := homeEncoder()
	ignore.HandleUnknown = HandleUnknownIgnore
	out, err := ignore.Transform(f)
	require.NoError(t, err)
	for _, cat := range ignore.Categories[0] {
		assert.Equal(t, 0.0, out.Cell(loan.ColHomeOwnership+"_"+cat, 0).Num)
	}
}

func TestOneHotEncoder_Errors(t *testing.T) {
	_, err := homeEncoder().Transform(frameOf(t, Record{loan.ColAge: 1.0}))
	var schemaErr *SchemaMismatchError
	assert.True(t, errors.As(err, &schemaErr))

	bad := &OneHotEncoder{Columns: []string{"a"}, Categories: [][]string{{"x", "x"}}}
	assert.Error(t, bad.Validate())
	bad = &OneHotEncoder{Columns: []string{"a"}, Categories: [][]string{{"x"}}, HandleUnknown: "guess"}
	assert.Error(t, bad.Validate())
}

func TestOrdinalEncoder_PreservesOrder(t *testing.T) {
	enc := &OrdinalEncoder{Column: loan.ColEducation, Categories: loan.EducationLevels}
	require.NoError(t, enc.Validate())

	prev := -1
	for _, level := range []string{"High School", "Associate", "Bachelor", "Master", "Doctorate"} {
		rank, ok := enc.Rank(level)
		require.True(t, ok)
		assert.Greater(t, rank, prev, level)
		prev = rank
	}

	f := frameOf(t, Batch{
		{loan.ColAge: 1.0, loan.ColEducation: "Master", loan.ColIncome: 5.0},
		{loan.ColAge: 2.0, loan.ColEducation: "High School", loan.ColIncome: 6.0},
	})
	out, err := enc.Transform(f)
	require.NoError(t, err)
	assert.Equal(t, f.Columns(), out.Columns(), "column position is kept")
	assert.Equal(t, []float64{3, 0}, numbers(t, out, loan.ColEducation))
}

func TestOrdinalEncoder_Unknown(t *testing.T) {
	f := frameOf(t, Record{loan.ColEducation: "Kindergarten"})

	enc := &OrdinalEncoder{Column: loan.ColEducation, Categories: loan.EducationLevels}
	_, err := enc.Transform(f)
	var catErr *UnknownCategoryError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, "Kindergarten", catErr.Value)

	enc.HandleUnknown = HandleUnknownUseEncodedValue
	assert.Error(t, enc.Validate(), "unknown_value is required")
	enc.UnknownValue = ptr(-1)
	require.NoError(t, enc.Validate())
	out, err := enc.Transform(f)
	require.NoError(t, err)
	assert.Equal(t, -1.0, out.Cell(loan.ColEducation, 0).Num)
}

func ptr(v float64) *float64 { return &v }
