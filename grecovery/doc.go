// Package grecovery contains the recovery side of the task watchdog demo.
//
// The watchdog timeout hook calls [*Signal.SignalFailure],
// which only records the failure and wakes the [Coordinator].
// The coordinator then reads the watchdog's diagnostic dump on its own goroutine,
// identifies the failed participant and blinks an indicator.
package grecovery
