package codereview

// FlowState is the state of the analysis flow.
type FlowState int

// Flow states.
const (
	FlowIdle FlowState = iota
	FlowSubmitting
	FlowSucceeded
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowSubmitting:
		return "submitting"
	case FlowSucceeded:
		return "succeeded"
	case FlowFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Ticket identifies one submission. Completions carrying an older ticket are
// ignored.
type Ticket uint64

// AnalysisFlow tracks a single analysis view: at most one request in flight
// and exactly one current result. It is not safe for concurrent use; callers
// drive it from a single event loop.
type AnalysisFlow struct {
	state   FlowState
	ticket  Ticket
	request AnalysisRequest
	result  *AnalysisResult
	count   int
	err     error
}

// State returns the current state.
func (f *AnalysisFlow) State() FlowState { return f.state }

// Submit starts a new submission. It fails with ErrEmptyCode for blank code
// and ErrSubmissionInFlight while a previous request is outstanding.
func (f *AnalysisFlow) Submit(req AnalysisRequest) (Ticket, error) {
	if f.state == FlowSubmitting {
		return 0, ErrSubmissionInFlight
	}
	if err := ValidateRequest(req); err != nil {
		return 0, err
	}
	f.ticket++
	f.state = FlowSubmitting
	f.request = req
	f.err = nil
	return f.ticket, nil
}

// Succeed completes submission t with a backend response. It reports whether
// the response was applied; stale tickets are ignored. A nil response fails
// the submission with ErrEmptyResponse.
func (f *AnalysisFlow) Succeed(t Ticket, resp *AnalysisResponse) bool {
	if !f.current(t) {
		return false
	}
	if resp == nil {
		f.Fail(t, ErrEmptyResponse)
		return false
	}
	result := Normalize(*resp, f.request.Code)
	f.result = &result
	f.count = resp.Analysis.IssuesCount
	f.state = FlowSucceeded
	return true
}

// Fail completes submission t with an error. The previous result, if any,
// stays current.
func (f *AnalysisFlow) Fail(t Ticket, err error) bool {
	if !f.current(t) {
		return false
	}
	f.err = err
	f.state = FlowFailed
	return true
}

func (f *AnalysisFlow) current(t Ticket) bool {
	return f.state == FlowSubmitting && t == f.ticket
}

// Result returns the current result, or nil before the first success.
func (f *AnalysisFlow) Result() *AnalysisResult { return f.result }

// IssuesCount returns the backend's issues_count for the current result.
func (f *AnalysisFlow) IssuesCount() int { return f.count }

// Request returns the most recently submitted request.
func (f *AnalysisFlow) Request() AnalysisRequest { return f.request }

// Err returns the failure of the last submission when State is FlowFailed.
func (f *AnalysisFlow) Err() error { return f.err }

// Kind classifies the last failure.
func (f *AnalysisFlow) Kind() ErrorKind { return Classify(f.err) }
