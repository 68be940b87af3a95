package gtest

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TimeFactor multiplies every duration produced by [ScaleMs].
// It is read from the GTWDT_TEST_TIME_FACTOR environment variable at init,
// so that a slow or contended machine can stretch watchdog windows
// and receive timeouts without editing tests.
var TimeFactor ScaledDuration = 1

func init() {
	f := os.Getenv("GTWDT_TEST_TIME_FACTOR")
	if f == "" {
		return
	}

	n, err := strconv.Atoi(f)
	if err != nil {
		panic(fmt.Errorf(
			"failed to parse GTWDT_TEST_TIME_FACTOR (%q) into an integer: %w",
			f, err,
		))
	}

	if n <= 0 {
		panic(fmt.Errorf("GTWDT_TEST_TIME_FACTOR must be positive; got %d", n))
	}

	TimeFactor = ScaledDuration(n)
}

// ScaledDuration is a duration already multiplied by [TimeFactor].
type ScaledDuration time.Duration

// ScaleMs returns ms milliseconds multiplied by [TimeFactor].
func ScaleMs(ms int64) ScaledDuration {
	return TimeFactor * ScaledDuration(ms) * ScaledDuration(time.Millisecond)
}

// Dur converts d back to a plain [time.Duration],
// for use in configuration structs that take one.
func (d ScaledDuration) Dur() time.Duration {
	return time.Duration(d)
}

// Sleep calls [time.Sleep] with the given scaled duration.
func Sleep(dur ScaledDuration) {
	time.Sleep(time.Duration(dur))
}
