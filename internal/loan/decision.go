package loan

// Decision is the label attached to a scored applicant.
type Decision string

const (
	Approved Decision = "Approved"
	Rejected Decision = "Rejected"
)

// DecisionFor maps the model's class to a label: class 1 approves, anything
// else rejects.
func DecisionFor(class int) Decision {
	if class == 1 {
		return Approved
	}
	return Rejected
}
