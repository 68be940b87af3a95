package grecovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordian-engine/gtwdt/gcapture"
	"github.com/gordian-engine/gtwdt/gindicator"
	"github.com/gordian-engine/gtwdt/gjournal"
	"github.com/gordian-engine/gtwdt/gwatchdog"
)

// Dumper writes the watchdog's diagnostic text, one fragment per call.
// [*gwatchdog.Watchdog] satisfies it.
type Dumper interface {
	PrintTriggered(ctx context.Context, msgHandler func(string)) (int, error)
}

// Coordinator waits on a [Signal] and runs one recovery cycle per wakeup.
type Coordinator struct {
	log *slog.Logger
	cfg CoordinatorConfig

	capture gcapture.Capture

	done chan struct{}
}

// NewCoordinator validates cfg and starts the coordinator goroutine,
// which runs until ctx is canceled.
func NewCoordinator(ctx context.Context, log *slog.Logger, cfg CoordinatorConfig) (*Coordinator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid coordinator config: %w", err)
	}
	cfg.setDefaults()

	c := &Coordinator{
		log: log,
		cfg: cfg,

		done: make(chan struct{}),
	}
	go c.run(ctx)

	return c, nil
}

// Wait blocks until the coordinator goroutine returns.
func (c *Coordinator) Wait() {
	<-c.done
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)

	c.log.Info("Recovery coordinator waiting for failures", "variant", c.cfg.Variant)

	for {
		if err := c.cfg.Signal.Wait(ctx); err != nil {
			c.log.Info("Stopping due to context cancellation", "cause", err)
			return
		}

		if !c.cycle(ctx) {
			return
		}

		if !c.settle(ctx) {
			c.log.Info("Stopping due to context cancellation", "cause", context.Cause(ctx))
			return
		}
	}
}

// cycle handles one wakeup. It reports false if ctx finished during the cycle.
func (c *Coordinator) cycle(ctx context.Context) bool {
	c.capture.Reset()

	if _, err := c.cfg.Dumper.PrintTriggered(ctx, c.capture.HandleLine); err != nil {
		if ctx.Err() != nil {
			c.log.Info("Stopping due to context cancellation during dump", "cause", context.Cause(ctx))
			return false
		}
		if !errors.Is(err, gwatchdog.ErrNoneTriggered) {
			c.log.Warn("Failed to read watchdog diagnostics", "err", err)
		}
	}

	if !c.cfg.Signal.ConsumeFailure() {
		// Woken without a recorded failure; nothing to recover.
		return true
	}
	c.cfg.Metrics.DeadlineMiss()

	name, captured := c.capture.Name()
	c.log.Warn("Task watchdog failure detected", "participant", name, "captured", captured)

	action := gjournal.ActionNone
	if ind := c.indicatorFor(name, captured); ind != nil {
		if err := gindicator.Blink(ctx, ind, c.cfg.BlinkCycles, c.cfg.BlinkPeriod); err != nil {
			if ctx.Err() != nil {
				c.log.Info("Stopping due to context cancellation during blink", "cause", context.Cause(ctx))
				return false
			}
			c.log.Error("Failed to blink indicator", "participant", name, "err", err)
		} else {
			action = gjournal.ActionBlink
		}
	} else {
		c.log.Info("No indicator for failed participant", "participant", name, "captured", captured)
	}

	rec := gjournal.Record{
		At:          time.Now(),
		Participant: name,
		Captured:    captured,
		Action:      action,
	}
	if c.cfg.Journal != nil {
		stored, err := c.cfg.Journal.Append(ctx, rec)
		if err != nil {
			c.log.Warn("Failed to append recovery record", "err", err)
		} else {
			rec = stored
		}
	}
	c.cfg.Metrics.Recovery(name, string(action))

	c.log.Info("Recovery complete", "record", rec)

	if c.cfg.Cycles != nil {
		select {
		case <-ctx.Done():
			return false
		case c.cfg.Cycles <- rec:
		}
	}

	return true
}

func (c *Coordinator) indicatorFor(name string, captured bool) gindicator.Indicator {
	if c.cfg.Variant == VariantSingle {
		return c.cfg.Fallback
	}
	if !captured {
		return nil
	}
	return c.cfg.Indicators[name]
}

func (c *Coordinator) settle(ctx context.Context) bool {
	t := time.NewTimer(c.cfg.Settle)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
