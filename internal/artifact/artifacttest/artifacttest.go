// Package artifacttest builds a small, deterministic loan scoring bundle for
// tests. Its logistic model approves applicants with a high loan to income
// ratio and no prior default, and rejects anyone with a prior default.
package artifacttest

import (
	"path/filepath"
	"testing"

	"loanscore/internal/artifact"
	"loanscore/internal/loan"
	"loanscore/internal/model"
	"loanscore/internal/preprocess"
)

// Fitted vocabularies, sorted the way the encoder stores them.
var (
	Genders        = []string{"female", "male"}
	HomeOwnerships = []string{"MORTGAGE", "OTHER", "OWN", "RENT"}
	LoanIntents    = []string{"DEBTCONSOLIDATION", "EDUCATION", "HOMEIMPROVEMENT", "MEDICAL", "PERSONAL", "VENTURE"}
	PriorDefaults  = []string{"No", "Yes"}
)

// Scaler returns the fitted min-max scaler.
func Scaler() *preprocess.MinMaxScaler {
	return &preprocess.MinMaxScaler{
		Columns: append([]string(nil), loan.NumericalColumns...),
		DataMin: []float64{20, 8000, 0, 500, 5.42, 0, 2, 390},
		DataMax: []float64{144, 7200766, 125, 35000, 20, 0.66, 30, 850},
	}
}

// OneHot returns the fitted one-hot encoder.
func OneHot() *preprocess.OneHotEncoder {
	return &preprocess.OneHotEncoder{
		Columns:    append([]string(nil), loan.NominalColumns...),
		Categories: [][]string{Genders, HomeOwnerships, LoanIntents, PriorDefaults},
	}
}

// Ordinal returns the fitted education encoder.
func Ordinal() *preprocess.OrdinalEncoder {
	return &preprocess.OrdinalEncoder{
		Column:     loan.ColEducation,
		Categories: append([]string(nil), loan.EducationLevels...),
	}
}

// Roles returns the column roles.
func Roles() preprocess.Roles {
	return preprocess.Roles{
		Numerical:       append([]string(nil), loan.NumericalColumns...),
		Categorical:     []string{loan.ColGender, loan.ColEducation, loan.ColHomeOwnership, loan.ColLoanIntent, loan.ColPriorDefaults},
		NonHierarchical: append([]string(nil), loan.NominalColumns...),
		Hierarchical:    loan.ColEducation,
	}
}

// FeatureNames is the column order the pipeline produces for a full
// applicant record.
func FeatureNames() []string {
	names := []string{
		loan.ColAge, loan.ColEducation, loan.ColIncome, loan.ColEmpExp, loan.ColLoanAmount,
		loan.ColInterestRate, loan.ColPercentIncome, loan.ColCreditHistory, loan.ColCreditScore,
	}
	return append(names, OneHot().FeatureNames()...)
}

// Model returns the logistic model.
func Model() *model.LogisticRegression {
	weights := map[string]float64{
		loan.ColEducation:                   0.1,
		loan.ColPercentIncome:               8,
		loan.ColCreditScore:                 1,
		loan.ColPriorDefaults + "_Yes":      -10,
		loan.ColHomeOwnership + "_OWN":      -0.5,
		loan.ColLoanIntent + "_VENTURE":     -0.3,
		loan.ColLoanIntent + "_EDUCATION":   -0.2,
		loan.ColLoanIntent + "_MEDICAL":     -0.2,
		loan.ColHomeOwnership + "_MORTGAGE": 0.2,
	}
	names := FeatureNames()
	coef := make([]float64, len(names))
	for i, n := range names {
		coef[i] = weights[n]
	}
	return &model.LogisticRegression{Coef: coef, Intercept: -2, FeatureNames: names}
}

// Bundle returns the fixture as an in-memory bundle.
func Bundle(t testing.TB) *artifact.Bundle {
	t.Helper()
	b, err := artifact.New(Model(), Scaler(), OneHot(), Ordinal(), Roles())
	if err != nil {
		t.Fatalf("build fixture bundle: %v", err)
	}
	return b
}

// Write saves the fixture into dir and returns the two paths.
func Write(t testing.TB, dir string) (modelPath, preprocessingPath string) {
	t.Helper()
	modelPath = filepath.Join(dir, artifact.ModelFile)
	preprocessingPath = filepath.Join(dir, artifact.PreprocessingFile)
	if err := artifact.Save(Bundle(t), modelPath, preprocessingPath); err != nil {
		t.Fatalf("write fixture bundle: %v", err)
	}
	return modelPath, preprocessingPath
}
