package gwatchdog

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrDuplicateName is returned by [*Watchdog.AddUser]
	// when a user with the same name is already registered.
	ErrDuplicateName = errors.New("watchdog user name already registered")

	// ErrTableFull is returned by [*Watchdog.AddUser]
	// when [Config.MaxUsers] users are already registered.
	ErrTableFull = errors.New("watchdog user table is full")

	// ErrInvalidName is returned by [*Watchdog.AddUser] for an empty name.
	ErrInvalidName = errors.New("watchdog user name must not be empty")

	// ErrInvalidHandle is returned when a [UserHandle] is the zero value,
	// was never issued by this watchdog, or has been deleted.
	ErrInvalidHandle = errors.New("invalid watchdog user handle")

	// ErrNoneTriggered is returned by [*Watchdog.PrintTriggered]
	// when every registered user has reset in the current window.
	ErrNoneTriggered = errors.New("no watchdog users triggered")

	// ErrStopped is returned by calls made after the watchdog's root context finished.
	ErrStopped = errors.New("watchdog stopped")
)

// IsTermination reports whether the context was cancelled by the watchdog.
func IsTermination(ctx context.Context) bool {
	e := context.Cause(ctx)
	if e == nil {
		return false
	}

	var te TimeoutError
	if errors.As(e, &te) {
		return true
	}

	var ft ForcedTerminationError
	return errors.As(e, &ft)
}

// TimeoutError is the cause set on the watchdog context
// when a window expires and [Config.TriggerPanic] is set.
type TimeoutError struct {
	Users []string
}

func (e TimeoutError) Error() string {
	return "task watchdog timed out waiting on: " + strings.Join(e.Users, ", ")
}

// ForcedTerminationError indicates that [*Watchdog.Terminate] was called.
type ForcedTerminationError struct {
	Reason string
}

func (e ForcedTerminationError) Error() string {
	return "watchdog forced termination: " + e.Reason
}
