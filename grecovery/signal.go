package grecovery

import (
	"context"
	"runtime"
	"sync/atomic"
)

// Signal is the handoff between the watchdog timeout hook and the [Coordinator].
//
// It holds a failure flag written only by [*Signal.SignalFailure]
// and an event bit that wakes the coordinator.
// Raising an already-raised event bit is a no-op.
type Signal struct {
	failed atomic.Bool
	event  chan struct{}
}

func NewSignal() *Signal {
	return &Signal{
		// Capacity one so the bit can be raised without a waiter present.
		event: make(chan struct{}, 1),
	}
}

// SignalFailure sets the failure flag and raises the event bit.
//
// It is safe to call from the watchdog timeout hook:
// it never blocks, never allocates and never logs.
// If the bit was clear, SignalFailure yields so the woken coordinator can run.
func (s *Signal) SignalFailure() {
	s.failed.Store(true)

	select {
	case s.event <- struct{}{}:
		runtime.Gosched()
	default:
		// Already raised.
	}
}

// Failed reports the failure flag without clearing it.
func (s *Signal) Failed() bool {
	return s.failed.Load()
}

// ConsumeFailure clears the failure flag and reports whether it was set.
func (s *Signal) ConsumeFailure() bool {
	return s.failed.Swap(false)
}

// Wait blocks until the event bit is raised, then clears the bit.
// It returns the context's cause if ctx finishes first.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-s.event:
		return nil
	}
}

// WaitAndConsume waits for the event bit,
// then clears and reports the failure flag.
func (s *Signal) WaitAndConsume(ctx context.Context) (bool, error) {
	if err := s.Wait(ctx); err != nil {
		return false, err
	}
	return s.ConsumeFailure(), nil
}
