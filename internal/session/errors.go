package session

import "fmt"

// InvalidInputError reports a session started with neither a script nor an
// audio recording. User-correctable; surfaced before any external call.
type InvalidInputError struct{}

func (e *InvalidInputError) Error() string {
	return "no input supplied: provide a consultation script or an audio recording"
}

// PhaseError reports an operation invoked in the wrong session phase.
type PhaseError struct {
	Op   string
	Got  Phase
	Want Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: session is in %s phase, want %s", e.Op, e.Got, e.Want)
}

// PersistenceError reports a store write that failed after analysis
// succeeded. The computed result is still returned to the caller; this is a
// warning, not a blocker.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
