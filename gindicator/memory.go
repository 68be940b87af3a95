package gindicator

import (
	"fmt"
	"sync"
)

// MemoryDriver is a [Driver] that keeps pin levels in memory.
// It backs the simulated demo and the tests.
type MemoryDriver struct {
	mu   sync.Mutex
	pins map[int]*memoryPin
}

type memoryPin struct {
	cfg     PinConfig
	level   bool
	history []bool
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{pins: make(map[int]*memoryPin)}
}

func (d *MemoryDriver) ConfigureOutput(cfg PinConfig) error {
	if cfg.Pin < 0 {
		return fmt.Errorf("invalid pin %d", cfg.Pin)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pins[cfg.Pin]; ok {
		return fmt.Errorf("pin %d already configured", cfg.Pin)
	}
	d.pins[cfg.Pin] = &memoryPin{cfg: cfg}
	return nil
}

func (d *MemoryDriver) SetLevel(pin int, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	if !ok {
		return fmt.Errorf("pin %d is not configured as an output", pin)
	}
	p.level = on
	p.history = append(p.history, on)
	return nil
}

// Config returns the configuration of pin.
func (d *MemoryDriver) Config(pin int) (PinConfig, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	if !ok {
		return PinConfig{}, false
	}
	return p.cfg, true
}

// Level returns the current level of pin.
func (d *MemoryDriver) Level(pin int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	return ok && p.level
}

// History returns a copy of every level written to pin, oldest first.
func (d *MemoryDriver) History(pin int) []bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	if !ok {
		return nil
	}
	return append([]bool(nil), p.history...)
}

// ClearHistory forgets the write history of pin, keeping its level.
func (d *MemoryDriver) ClearHistory(pin int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pins[pin]; ok {
		p.history = nil
	}
}

// RisingEdges counts off-to-on transitions in history.
func RisingEdges(history []bool) int {
	n := 0
	prev := false
	for _, on := range history {
		if on && !prev {
			n++
		}
		prev = on
	}
	return n
}
