package harness

// CallEvent is one lowered call of a scenario run, as read back from the
// ledger.
type CallEvent struct {
	Seq      int    `json:"seq"`
	OpIndex  int    `json:"op_index"`
	Name     string `json:"name"`
	Rendered string `json:"rendered"`
	CallID   string `json:"call_id"`
}

// Failure is one operation that did not lower.
type Failure struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion holds.
	Pass bool `json:"pass"`

	// RunID is the ledger ID the run was recorded under.
	RunID string `json:"run_id,omitempty"`

	// Digest is the run digest over the emitted call IDs.
	Digest string `json:"run_digest,omitempty"`

	// Calls contains the lowered calls in emission order.
	Calls []CallEvent `json:"calls"`

	// Failures contains the operations that did not lower, by op index.
	Failures []Failure `json:"failures"`

	// CompileError holds the code of the compile failure, if any.
	CompileError string `json:"compile_error,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Calls:    []CallEvent{},
		Failures: []Failure{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Rendered returns the rendered text of every call, in emission order.
func (r *Result) Rendered() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Rendered
	}
	return out
}
