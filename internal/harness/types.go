package harness

// Trace event types.
const (
	TraceRequest      = "request"
	TraceResponse     = "response"
	TraceError        = "error"
	TraceCycle        = "cycle"
	TraceNotification = "notification"
	TraceNavigation   = "navigation"
)

// TraceEvent is one observable effect of a scenario run. Data holds the
// event's canonical IR form so traces serialize deterministically.
type TraceEvent struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`
	Data any    `json:"data,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists requests, responses, cycles, notifications and
	// navigations in the order they happened.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns how many trace events have the given type.
func (r *Result) Count(eventType string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}
