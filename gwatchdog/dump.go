package gwatchdog

import "context"

// Fragments written by [*Watchdog.PrintTriggered] around each user name.
const (
	EntryPrefix = "\n - "

	// Users are not pinned to a core, so every entry reports both.
	EntryCPUSuffix = " (CPU 0/1)"
)

// PrintTriggered writes the users that have not reset in the current window
// to msgHandler, one call per text fragment:
// [EntryPrefix], the user name, then [EntryCPUSuffix].
//
// msgHandler runs on the calling goroutine, not the watchdog kernel.
// failingCPUs is always zero, since there is no idle-core monitoring.
// If no user is overdue, PrintTriggered writes nothing and returns [ErrNoneTriggered].
func (w *Watchdog) PrintTriggered(ctx context.Context, msgHandler func(msg string)) (failingCPUs int, err error) {
	names, err := w.Triggered(ctx)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, ErrNoneTriggered
	}

	for _, name := range names {
		msgHandler(EntryPrefix)
		msgHandler(name)
		msgHandler(EntryCPUSuffix)
	}
	return 0, nil
}
