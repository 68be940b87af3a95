//go:build debug

package gwatchdog

import "fmt"

// checkInvariants panics if the kernel's user table is inconsistent.
// It is only compiled into builds with the "debug" tag.
func checkInvariants(entries []*entry, maxUsers int) {
	if len(entries) > maxUsers {
		panic(fmt.Errorf("BUG: %d watchdog users registered, limit is %d", len(entries), maxUsers))
	}

	var prevID uint64
	names := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.id <= prevID {
			panic(fmt.Errorf("BUG: watchdog user %d has id %d, not greater than previous id %d", i, e.id, prevID))
		}
		prevID = e.id

		if e.name == "" {
			panic(fmt.Errorf("BUG: watchdog user %d has an empty name", i))
		}
		if _, ok := names[e.name]; ok {
			panic(fmt.Errorf("BUG: watchdog user name %q registered twice", e.name))
		}
		names[e.name] = struct{}{}
	}
}
