package harness

import "github.com/roach88/harvest/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace is the harvest log after the run, in log order. Filtered
	// interactions (client world, off hand) never reach the log.
	Trace []ir.Interaction `json:"trace"`

	// Steps holds the host-visible result of each interaction.
	Steps []StepResult `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final maps "x,y,z" to the block state string at the end of the run,
	// for every position the scenario placed.
	Final map[string]string `json:"final"`
}

// StepResult is what one interaction returned.
type StepResult struct {
	Index    int    `json:"index"`
	Result   string `json:"result"`
	Outcome  string `json:"outcome,omitempty"`
	Filtered bool   `json:"filtered,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.Interaction{},
		Steps:  []StepResult{},
		Errors: []string{},
		Final:  map[string]string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
