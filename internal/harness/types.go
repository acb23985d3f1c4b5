package harness

import "strings"

// TraceEvent is one observable effect of a scenario step.
type TraceEvent struct {
	Seq       int64    `json:"seq"`
	Op        string   `json:"op"`
	Name      string   `json:"name,omitempty"`
	Class     string   `json:"class,omitempty"`
	Outcome   string   `json:"outcome,omitempty"`
	Instances []string `json:"instances,omitempty"`
}

// Label identifies the event in trace_order and trace_contains assertions:
// "op" or "op:name".
func (e TraceEvent) Label() string {
	if e.Name == "" {
		return e.Op
	}
	return e.Op + ":" + e.Name
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Trace holds step effects in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Output is everything the environment printed to its display router.
	Output string `json:"output,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Labels returns the label of every event in order.
func (r *Result) Labels() []string {
	labels := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		labels[i] = ev.Label()
	}
	return labels
}

// Summary is a one-line description for CLI text output.
func (r *Result) Summary() string {
	if r.Pass {
		return "PASS"
	}
	return "FAIL: " + strings.Join(r.Errors, "; ")
}
