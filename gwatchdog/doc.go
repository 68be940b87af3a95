// Package gwatchdog provides a task watchdog: a single timeout window
// shared by a table of named users.
//
// Each user registered through [*Watchdog.AddUser] must call [*Watchdog.ResetUser]
// at least once per window. Once every user has reset, the window restarts.
// If the window expires while some user has not reset,
// the watchdog invokes the configured [Config.TimeoutHandler]
// on its own kernel goroutine and restarts the window.
// The handler plays the part of an interrupt service routine:
// it must return quickly and must not block, log, or call back into the watchdog.
//
// After a timeout, [*Watchdog.PrintTriggered] reports the overdue users
// as a stream of text fragments, and [*Watchdog.Triggered] reports them as a slice.
package gwatchdog
