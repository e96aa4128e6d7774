package harness

import "github.com/roach88/snapledger/internal/epoch"

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Plan is the computed plan; nil when the scenario has no plan step or
	// planning failed.
	Plan *epoch.Plan `json:"plan,omitempty"`

	// PlanErr is the planning error, if any.
	PlanErr error `json:"-"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
