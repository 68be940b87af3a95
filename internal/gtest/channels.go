package gtest

import (
	"time"
)

// TestingFatalHelper is the subset of [testing.TB] used by the channel helpers.
// It is an interface so the helpers can be tested with a fake.
type TestingFatalHelper interface {
	Helper()

	Fatalf(format string, args ...any)
}

// ReceiveSoon receives a value from ch,
// calling tb.Fatalf if nothing arrives within a short default timeout.
func ReceiveSoon[T any](tb TestingFatalHelper, ch <-chan T) T {
	tb.Helper()
	return ReceiveOrTimeout(tb, ch, ScaleMs(100))
}

// ReceiveOrTimeout receives a value from ch,
// calling tb.Fatalf if nothing arrives within timeout.
//
// Watchdog tests wait out whole timeout windows,
// so they use this with a window-derived timeout instead of [ReceiveSoon].
func ReceiveOrTimeout[T any](tb TestingFatalHelper, ch <-chan T, timeout ScaledDuration) T {
	tb.Helper()

	if ch == nil {
		tb.Fatalf("immediate failure to avoid blocking receive from nil channel %T", ch)
		panic("unreachable")
	}

	timer := time.NewTimer(time.Duration(timeout))
	defer timer.Stop()

	select {
	case <-timer.C:
		tb.Fatalf(
			"timed out after %s receiving from channel %T; if this only flakes on one machine, set GTWDT_TEST_TIME_FACTOR above %d",
			time.Duration(timeout), ch, TimeFactor,
		)
		// A fake tb does not stop the goroutine, so panic instead of returning a zero value.
		panic("unreachable")
	case x := <-ch:
		return x
	}
}

// NotSending calls tb.Fatalf if a value is immediately available on ch.
func NotSending[T any](tb TestingFatalHelper, ch <-chan T) {
	tb.Helper()

	if ch == nil {
		tb.Fatalf("immediate failure to check that a nil channel is not sending (%T)", ch)
		panic("unreachable")
	}

	select {
	case x := <-ch:
		tb.Fatalf("no value should have been sent on channel %T; got %v", ch, x)
	default:
	}
}

// NotSendingFor asserts that nothing arrives on ch for the whole of dur.
// Prefer [NotSending] when another synchronization point is available.
func NotSendingFor[T any](tb TestingFatalHelper, ch <-chan T, dur ScaledDuration) {
	tb.Helper()

	if ch == nil {
		tb.Fatalf("immediate failure to check that a nil channel is not sending (%T)", ch)
		panic("unreachable")
	}

	timer := time.NewTimer(time.Duration(dur))
	defer timer.Stop()

	select {
	case <-timer.C:
	case x := <-ch:
		tb.Fatalf("received value %v on channel %T, when none was expected within %s", x, ch, time.Duration(dur))
	}
}
