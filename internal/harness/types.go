package harness

// Outcome names reported in the trace.
const (
	OutcomeOK             = "ok"
	OutcomeInvalidField   = "invalid_field"
	OutcomeParseError     = "parse_error"
	OutcomeCreateError    = "create_error"
	OutcomeRetrievalError = "retrieval_error"
	OutcomeError          = "error"
)

// TraceEvent is one executed flow step.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Op      string `json:"op"`
	Model   string `json:"model"`
	Input   string `json:"input,omitempty"` // filter or record text
	Outcome string `json:"outcome"`
	Count   int    `json:"count,omitempty"`   // records returned
	Records string `json:"records,omitempty"` // canonical JSON of returned records
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the flow steps in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends ev with the next sequence number.
func (r *Result) AddTrace(ev TraceEvent) TraceEvent {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
	return ev
}
