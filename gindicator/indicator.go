// Package gindicator drives binary status outputs, such as LEDs,
// that tasks toggle to make their state visible.
//
// A [Driver] owns the physical or simulated pins.
// A [Bank] configures a fixed set of named [Line] values once at startup,
// and task code only ever calls [Line.Set].
package gindicator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Indicator is a single on/off output.
type Indicator interface {
	Set(on bool) error
}

// PinConfig describes how a pin is configured as an output.
// The zero value besides Pin disables both pulls and interrupts.
type PinConfig struct {
	Pin int

	PullUp, PullDown bool

	Interrupt bool
}

// Driver is the backend that owns the pins.
type Driver interface {
	ConfigureOutput(cfg PinConfig) error
	SetLevel(pin int, on bool) error
}

// LineConfig names one output of a [Bank].
type LineConfig struct {
	Name string
	Pin  int
}

// Line is an [Indicator] bound to one pin of a [Driver].
// Set is safe for concurrent use.
type Line struct {
	log  *slog.Logger
	d    Driver
	name string
	pin  int

	mu sync.Mutex
	on bool
}

func (l *Line) Name() string { return l.name }
func (l *Line) Pin() int     { return l.pin }

// On reports the last level written.
func (l *Line) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

func (l *Line) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.d.SetLevel(l.pin, on); err != nil {
		return fmt.Errorf("failed to set indicator %q (pin %d): %w", l.name, l.pin, err)
	}
	l.on = on
	l.log.Debug("Indicator set", "on", on)
	return nil
}

// Bank is the set of lines configured at startup.
type Bank struct {
	lines []*Line
}

// NewBank configures every line as an output with pulls and interrupts disabled,
// then drives it off.
func NewBank(log *slog.Logger, d Driver, cfgs []LineConfig) (*Bank, error) {
	b := &Bank{lines: make([]*Line, 0, len(cfgs))}
	for _, c := range cfgs {
		if _, ok := b.Line(c.Name); ok {
			return nil, fmt.Errorf("duplicate indicator name %q", c.Name)
		}

		if err := d.ConfigureOutput(PinConfig{Pin: c.Pin}); err != nil {
			return nil, fmt.Errorf("failed to configure indicator %q on pin %d: %w", c.Name, c.Pin, err)
		}

		l := &Line{
			log:  log.With("indicator", c.Name, "pin", c.Pin),
			d:    d,
			name: c.Name,
			pin:  c.Pin,
		}
		if err := l.Set(false); err != nil {
			return nil, err
		}
		b.lines = append(b.lines, l)
	}
	return b, nil
}

// Line returns the line with the given name.
func (b *Bank) Line(name string) (*Line, bool) {
	for _, l := range b.lines {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// Lines returns every line in configuration order.
func (b *Bank) Lines() []*Line {
	return b.lines
}

// Blink drives ind through cycles of on for period, then off for period.
// The indicator is off when Blink returns,
// including when ctx is canceled partway through.
func Blink(ctx context.Context, ind Indicator, cycles int, period time.Duration) error {
	timer := time.NewTimer(period)
	defer timer.Stop()

	wait := func() bool {
		timer.Reset(period)
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		}
	}

	for range cycles {
		if err := ind.Set(true); err != nil {
			return err
		}
		if !wait() {
			return errors.Join(context.Cause(ctx), ind.Set(false))
		}
		if err := ind.Set(false); err != nil {
			return err
		}
		if !wait() {
			return context.Cause(ctx)
		}
	}
	return nil
}
