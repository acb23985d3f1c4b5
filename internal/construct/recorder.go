package construct

// EventKind names what happened to an environment.
type EventKind string

const (
	EventClear    EventKind = "clear"
	EventTeardown EventKind = "teardown"
)

// Outcome is the result of a lifecycle event.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeBusy      Outcome = "busy"
	OutcomeReentrant Outcome = "reentrant"
	OutcomePanicked  Outcome = "panicked"
)

// Event is a lifecycle record handed to a Recorder.
type Event struct {
	EnvironmentID string
	Seq           int64
	Kind          EventKind
	Outcome       Outcome
	Detail        string
}

// Recorder receives lifecycle events, e.g. to persist them in a journal.
// A failing Recorder never affects the operation being recorded.
type Recorder interface {
	Record(Event) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Event) error

// Record implements Recorder.
func (f RecorderFunc) Record(ev Event) error {
	return f(ev)
}

func (e *Environment) record(kind EventKind, outcome Outcome, detail string) {
	if e.recorder == nil {
		return
	}
	ev := Event{
		EnvironmentID: e.id,
		Seq:           e.clock.Next(),
		Kind:          kind,
		Outcome:       outcome,
		Detail:        detail,
	}
	if err := e.recorder.Record(ev); err != nil {
		e.logger.Warn("lifecycle event not recorded",
			"kind", kind,
			"outcome", outcome,
			"error", err,
		)
	}
}
