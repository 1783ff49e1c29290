// Package loan describes the fixed applicant-loan schema the scoring model
// was trained on: column names, column order, category vocabularies and the
// decision labels returned to callers.
package loan

import "fmt"

// Column names of an applicant record.
const (
	ColAge           = "person_age"
	ColGender        = "person_gender"
	ColEducation     = "person_education"
	ColIncome        = "person_income"
	ColEmpExp        = "person_emp_exp"
	ColHomeOwnership = "person_home_ownership"
	ColLoanAmount    = "loan_amnt"
	ColLoanIntent    = "loan_intent"
	ColInterestRate  = "loan_int_rate"
	ColPercentIncome = "loan_percent_income"
	ColCreditHistory = "cb_person_cred_hist_length"
	ColCreditScore   = "credit_score"
	ColPriorDefaults = "previous_loan_defaults_on_file"
)

// Columns is the order in which applicant fields are laid out when a record
// is turned into a table.
var Columns = []string{
	ColAge,
	ColGender,
	ColEducation,
	ColIncome,
	ColEmpExp,
	ColHomeOwnership,
	ColLoanAmount,
	ColLoanIntent,
	ColInterestRate,
	ColPercentIncome,
	ColCreditHistory,
	ColCreditScore,
	ColPriorDefaults,
}

// NumericalColumns are the applicant fields holding numbers.
var NumericalColumns = []string{
	ColAge,
	ColIncome,
	ColEmpExp,
	ColLoanAmount,
	ColInterestRate,
	ColPercentIncome,
	ColCreditHistory,
	ColCreditScore,
}

// NominalColumns are the categorical fields without a meaningful order.
var NominalColumns = []string{
	ColGender,
	ColHomeOwnership,
	ColLoanIntent,
	ColPriorDefaults,
}

// EducationLevels lists education from lowest to highest.
var EducationLevels = []string{"High School", "Associate", "Bachelor", "Master", "Doctorate"}

var (
	Genders          = []string{"male", "female"}
	HomeOwnerships   = []string{"RENT", "MORTGAGE", "OWN", "OTHER"}
	LoanIntents      = []string{"PERSONAL", "EDUCATION", "MEDICAL", "VENTURE", "HOMEIMPROVEMENT", "DEBTCONSOLIDATION"}
	PriorDefaultFlag = []string{"Yes", "No"}
)

// Applicant is the typed form of one applicant record. Income is a pointer
// so that a missing value can be expressed and imputed downstream.
type Applicant struct {
	Age           float64  `json:"person_age"`
	Gender        string   `json:"person_gender"`
	Education     string   `json:"person_education"`
	Income        *float64 `json:"person_income"`
	EmpExp        float64  `json:"person_emp_exp"`
	HomeOwnership string   `json:"person_home_ownership"`
	LoanAmount    float64  `json:"loan_amnt"`
	LoanIntent    string   `json:"loan_intent"`
	InterestRate  float64  `json:"loan_int_rate"`
	PercentIncome float64  `json:"loan_percent_income"`
	CreditHistory float64  `json:"cb_person_cred_hist_length"`
	CreditScore   float64  `json:"credit_score"`
	PriorDefaults string   `json:"previous_loan_defaults_on_file"`
}

// Record returns the applicant as a loosely typed field map.
func (a Applicant) Record() map[string]any {
	var income any
	if a.Income != nil {
		income = *a.Income
	}
	return map[string]any{
		ColAge:           a.Age,
		ColGender:        a.Gender,
		ColEducation:     a.Education,
		ColIncome:        income,
		ColEmpExp:        a.EmpExp,
		ColHomeOwnership: a.HomeOwnership,
		ColLoanAmount:    a.LoanAmount,
		ColLoanIntent:    a.LoanIntent,
		ColInterestRate:  a.InterestRate,
		ColPercentIncome: a.PercentIncome,
		ColCreditHistory: a.CreditHistory,
		ColCreditScore:   a.CreditScore,
		ColPriorDefaults: a.PriorDefaults,
	}
}

// Float64 returns a pointer to v, handy for Applicant.Income literals.
func Float64(v float64) *float64 { return &v }

// SampleApproved is a demo applicant the reference model approves.
var SampleApproved = Applicant{
	Age:           22,
	Gender:        "female",
	Education:     "Master",
	Income:        Float64(71948),
	EmpExp:        0,
	HomeOwnership: "RENT",
	LoanAmount:    35000,
	LoanIntent:    "PERSONAL",
	InterestRate:  16.02,
	PercentIncome: 0.49,
	CreditHistory: 3,
	CreditScore:   561,
	PriorDefaults: "No",
}

// SampleRejected is a demo applicant the reference model rejects.
var SampleRejected = Applicant{
	Age:           21,
	Gender:        "female",
	Education:     "High School",
	Income:        Float64(12282),
	EmpExp:        0,
	HomeOwnership: "OWN",
	LoanAmount:    1000,
	LoanIntent:    "EDUCATION",
	InterestRate:  11.14,
	PercentIncome: 0.08,
	CreditHistory: 2,
	CreditScore:   504,
	PriorDefaults: "Yes",
}

// Sample returns a demo applicant by name ("approved" or "rejected").
func Sample(name string) (Applicant, error) {
	switch name {
	case "approved":
		return SampleApproved, nil
	case "rejected":
		return SampleRejected, nil
	default:
		return Applicant{}, fmt.Errorf("unknown sample %q (want approved or rejected)", name)
	}
}
