// Package gcapture extracts the name of an overdue watchdog user
// from the text fragments written by a diagnostic dump such as
// [github.com/gordian-engine/gtwdt/gwatchdog.Watchdog.PrintTriggered].
//
// The parser depends on the exact fragment format of the dump:
// an entry starts with a fragment containing " -",
// the next fragment without "(CPU" is the name,
// and a fragment containing "(CPU" ends the entry.
// When several entries are dumped, the last one wins.
package gcapture

import "strings"

// MaxNameLen bounds the capture buffer.
// Names of MaxNameLen bytes or more are not captured.
const MaxNameLen = 32

const (
	entryMarker = " -"
	cpuMarker   = "(CPU"
)

// LineHandler consumes one diagnostic fragment at a time.
type LineHandler interface {
	HandleLine(line string)
}

// Capture is a [LineHandler] that remembers the most recent entry name.
// It is not safe for concurrent use;
// the recovery coordinator owns it for the length of a dump.
type Capture struct {
	capturing bool
	captured  bool
	name      string
}

// HandleLine advances the parser by one fragment.
func (c *Capture) HandleLine(line string) {
	if strings.Contains(line, entryMarker) {
		c.capturing = true
		c.name = ""
		return
	}

	isCPU := strings.Contains(line, cpuMarker)

	if c.capturing && !isCPU && len(line) < MaxNameLen {
		c.name = line
		c.captured = true
	}

	if isCPU {
		c.capturing = false
	}
}

// Name returns the captured name and whether any name was captured
// since the last [*Capture.Reset].
func (c *Capture) Name() (string, bool) {
	return c.name, c.captured
}

// Reset clears all parser state.
func (c *Capture) Reset() {
	*c = Capture{}
}
