package gapp

import "fmt"

// FatalError is the cancellation cause of the application context
// when a component cannot continue.
type FatalError struct {
	Op string

	// Empty when the failure is not tied to a participant.
	Participant string

	Err error
}

func (e FatalError) Error() string {
	if e.Participant == "" {
		return fmt.Sprintf("fatal error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("fatal error during %s for participant %q: %v", e.Op, e.Participant, e.Err)
}

func (e FatalError) Unwrap() error {
	return e.Err
}
