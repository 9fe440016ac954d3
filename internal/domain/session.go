package domain

// Alert is the error signal surfaced to the caller: a human-readable message
// plus an ordered list of detail strings from the remote service.
type Alert struct {
	Message string
	Details []string
}

// State holds the observable signals of one upload session. Values are
// immutable: every event produces a fresh State via Reduce, which keeps the
// error and success signals mutually exclusive and ties the busy flag to the
// lifetime of a single in-flight submission.
type State struct {
	Busy      bool
	Err       *Alert
	Success   string
	Candidate *Candidate
}

// Event is a discrete transition applied to a session State.
type Event interface {
	isEvent()
}

// Validated stages a new candidate, replacing any previous one and clearing
// prior signals.
type Validated struct {
	Candidate *Candidate
}

// Rejected reports a failed validation and clears the candidate.
type Rejected struct {
	Message string
}

// SubmitStarted marks the beginning of an in-flight submission.
type SubmitStarted struct{}

// SubmitSucceeded settles a submission, consuming the candidate.
type SubmitSucceeded struct {
	Message string
}

// SubmitFailed settles a submission with an error. The candidate is retained
// so the user can resubmit.
type SubmitFailed struct {
	Message string
	Details []string
}

func (Validated) isEvent()       {}
func (Rejected) isEvent()        {}
func (SubmitStarted) isEvent()   {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}

// Reduce applies an event to a state and returns the next state. Unknown
// events leave the state unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case Validated:
		return State{Candidate: e.Candidate}
	case Rejected:
		return State{Err: &Alert{Message: e.Message}}
	case SubmitStarted:
		return State{Busy: true, Candidate: s.Candidate}
	case SubmitSucceeded:
		return State{Success: e.Message}
	case SubmitFailed:
		return State{
			Err:       &Alert{Message: e.Message, Details: e.Details},
			Candidate: s.Candidate,
		}
	default:
		return s
	}
}

// Session carries the current state of one upload workflow instance. It is
// single-flight: callers must not re-enter Submit while State().Busy is true.
type Session struct {
	state State
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) State() State {
	return s.state
}

// Apply transitions the session and returns the resulting state.
func (s *Session) Apply(ev Event) State {
	s.state = Reduce(s.state, ev)
	return s.state
}
