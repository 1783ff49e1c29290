package preprocess

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"loanscore/internal/loan"
)

// Roles are the column role lists stored next to the fitted transformers.
type Roles struct {
	Numerical       []string `json:"numerical_cols"`
	Categorical     []string `json:"categorical_cols"`
	NonHierarchical []string `json:"non_hierarchal_cat"`
	Hierarchical    string   `json:"hierarchal_col"`
}

// Validate checks that exactly one hierarchical column is named, that the
// categorical roles partition the categorical columns and that no column is
// both numerical and categorical.
func (r Roles) Validate() error {
	if strings.TrimSpace(r.Hierarchical) == "" {
		return fmt.Errorf("hierarchical column is empty")
	}
	cat := make(map[string]bool, len(r.Categorical))
	for _, c := range r.Categorical {
		if cat[c] {
			return fmt.Errorf("categorical column %q listed twice", c)
		}
		cat[c] = true
	}
	for _, c := range r.Numerical {
		if cat[c] {
			return fmt.Errorf("column %q is both numerical and categorical", c)
		}
	}

	union := make(map[string]bool, len(r.NonHierarchical)+1)
	for _, c := range r.NonHierarchical {
		if c == r.Hierarchical {
			return fmt.Errorf("column %q is both hierarchical and non-hierarchical", c)
		}
		union[c] = true
	}
	union[r.Hierarchical] = true
	if len(union) != len(cat) {
		return fmt.Errorf("categorical columns %v are not non-hierarchical %v plus hierarchical %q",
			r.Categorical, r.NonHierarchical, r.Hierarchical)
	}
	for c := range union {
		if !cat[c] {
			return fmt.Errorf("column %q has a categorical role but is not in categorical_cols", c)
		}
	}
	return nil
}

// Pipeline replays the fitted preprocessing. It holds no mutable state and
// may be shared between goroutines.
type Pipeline struct {
	scaler  *MinMaxScaler
	oneHot  *OneHotEncoder
	ordinal *OrdinalEncoder
	roles   Roles
	order   []string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithColumnOrder sets the column order used when inputs are laid out as a
// frame. It defaults to the applicant schema order.
func WithColumnOrder(cols []string) Option {
	return func(p *Pipeline) {
		p.order = append([]string(nil), cols...)
	}
}

// NewPipeline validates the fitted transformers against the roles.
func NewPipeline(scaler *MinMaxScaler, oneHot *OneHotEncoder, ordinal *OrdinalEncoder, roles Roles, opts ...Option) (*Pipeline, error) {
	if scaler == nil || oneHot == nil || ordinal == nil {
		return nil, fmt.Errorf("pipeline needs a scaler and both encoders")
	}
	if err := roles.Validate(); err != nil {
		return nil, err
	}
	if err := scaler.Validate(); err != nil {
		return nil, err
	}
	if err := oneHot.Validate(); err != nil {
		return nil, err
	}
	if err := ordinal.Validate(); err != nil {
		return nil, err
	}
	if ordinal.Column != roles.Hierarchical {
		return nil, fmt.Errorf("ordinal encoder column %q differs from hierarchical column %q", ordinal.Column, roles.Hierarchical)
	}
	if !sameSet(scaler.Columns, roles.Numerical) {
		return nil, fmt.Errorf("scaler columns %v differ from numerical columns %v", scaler.Columns, roles.Numerical)
	}
	if !sameSet(oneHot.Columns, roles.NonHierarchical) {
		return nil, fmt.Errorf("one-hot encoder columns %v differ from non-hierarchical columns %v", oneHot.Columns, roles.NonHierarchical)
	}

	p := &Pipeline{
		scaler:  scaler,
		oneHot:  oneHot,
		ordinal: ordinal,
		roles:   roles,
		order:   loan.Columns,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Roles returns the column roles the pipeline was built with.
func (p *Pipeline) Roles() Roles { return p.roles }

// Frame lays an input out in the pipeline's column order.
func (p *Pipeline) Frame(in Input) (*Frame, error) {
	return FrameOf(in, p.order)
}

// Clean applies gender normalisation and outlier capping, the two steps
// every prediction runs before the fitted transforms.
func (p *Pipeline) Clean(f *Frame) (*Frame, error) {
	f = NormalizeGender(f)
	return CapOutliers(f, p.roles.Numerical)
}

// Transform runs every step on a frame: normalise gender, cap outliers,
// impute income, scale, one-hot encode, ordinal encode.
func (p *Pipeline) Transform(f *Frame) (*Frame, error) {
	f, err := p.Clean(f)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	if f, err = ImputeIncome(f); err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	if len(p.roles.Numerical) > 0 {
		if f, err = p.scaler.Transform(f); err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
	}
	if len(p.roles.NonHierarchical) > 0 {
		if f, err = p.oneHot.Transform(f); err != nil {
			return nil, fmt.Errorf("one-hot encode: %w", err)
		}
	}
	if f, err = p.ordinal.Transform(f); err != nil {
		return nil, fmt.Errorf("ordinal encode: %w", err)
	}

	log.Debug().
		Int("rows", f.Len()).
		Int("columns", len(f.Columns())).
		Msg("Preprocessed batch")
	return f, nil
}

// Run lays out an input and transforms it.
func (p *Pipeline) Run(in Input) (*Frame, error) {
	f, err := p.Frame(in)
	if err != nil {
		return nil, err
	}
	return p.Transform(f)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	in := make(map[string]bool, len(a))
	for _, s := range a {
		in[s] = true
	}
	for _, s := range b {
		if !in[s] {
			return false
		}
	}
	return true
}
