// Package gperiph is a [gindicator.Driver] for real GPIO lines, through periph.io.
//
// Configured lines are push-pull outputs with no pull resistor,
// driven low until the first [Driver.SetLevel].
package gperiph

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/gordian-engine/gtwdt/gindicator"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Driver resolves pins by number through the periph.io GPIO registry,
// using names of the form "GPIO<n>".
type Driver struct {
	mu   sync.Mutex
	pins map[int]gpio.PinIO
}

// New initializes the host drivers.
func New() (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host drivers: %w", err)
	}
	return &Driver{pins: make(map[int]gpio.PinIO)}, nil
}

func (d *Driver) ConfigureOutput(cfg gindicator.PinConfig) error {
	if cfg.PullUp || cfg.PullDown {
		return fmt.Errorf("pin %d: pulls are not supported on outputs", cfg.Pin)
	}
	if cfg.Interrupt {
		return fmt.Errorf("pin %d: interrupts are not supported on outputs", cfg.Pin)
	}

	name := "GPIO" + strconv.Itoa(cfg.Pin)
	p := gpioreg.ByName(name)
	if p == nil {
		return fmt.Errorf("no GPIO pin named %s", name)
	}

	// Out leaves any previously set pull in place.
	if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("failed to clear pull on %s: %w", name, err)
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to configure %s as output: %w", name, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pins == nil {
		d.pins = make(map[int]gpio.PinIO)
	}
	d.pins[cfg.Pin] = p
	return nil
}

func (d *Driver) SetLevel(pin int, on bool) error {
	d.mu.Lock()
	p, ok := d.pins[pin]
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("pin %d is not configured as an output", pin)
	}
	return p.Out(gpio.Level(on))
}
