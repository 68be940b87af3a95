package gapp

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordian-engine/gtwdt/grecovery"
)

// ParticipantConfig describes one participant task and the indicator it drives.
type ParticipantConfig struct {
	Name   string
	Period time.Duration
	Pin    int
}

type Config struct {
	Variant grecovery.Variant

	Participants []ParticipantConfig

	// Watchdog window.
	Timeout      time.Duration
	TriggerPanic bool

	// Zero means the watchdog default.
	MaxUsers int

	// Recovery blink pattern and the pause after each cycle.
	// Zero values use the grecovery defaults.
	BlinkCycles int
	BlinkPeriod time.Duration
	Settle      time.Duration

	// Path to a sqlite journal.
	// Empty keeps the journal in memory.
	JournalPath string

	// Listen address of the status server.
	// Empty disables it.
	HTTPAddr string
}

const DefaultTimeout = 5000 * time.Millisecond

// DefaultConfig returns the demo configuration for v:
// "test_user" on pin 2 with a 1000ms period,
// plus "test_2_user" on pin 15 with a 1500ms period for [grecovery.VariantMulti].
func DefaultConfig(v grecovery.Variant) Config {
	ps := []ParticipantConfig{
		{Name: "test_user", Period: 1000 * time.Millisecond, Pin: 2},
	}
	if v == grecovery.VariantMulti {
		ps = append(ps, ParticipantConfig{Name: "test_2_user", Period: 1500 * time.Millisecond, Pin: 15})
	}

	return Config{
		Variant:      v,
		Participants: ps,

		Timeout: DefaultTimeout,

		BlinkCycles: grecovery.DefaultBlinkCycles,
		BlinkPeriod: grecovery.DefaultBlinkPeriod,
		Settle:      grecovery.DefaultSettle,
	}
}

func (c Config) validate() error {
	var err error

	if _, vErr := grecovery.ParseVariant(string(c.Variant)); vErr != nil {
		err = errors.Join(err, fmt.Errorf("Config.Variant: %w", vErr))
	}

	if len(c.Participants) == 0 {
		err = errors.Join(err, errors.New("Config.Participants must not be empty"))
	}

	names := make(map[string]struct{}, len(c.Participants))
	pins := make(map[int]struct{}, len(c.Participants))
	for i, p := range c.Participants {
		if p.Name == "" {
			err = errors.Join(err, fmt.Errorf("Config.Participants[%d].Name must not be empty", i))
		} else if _, ok := names[p.Name]; ok {
			err = errors.Join(err, fmt.Errorf("Config.Participants[%d].Name %q is duplicated", i, p.Name))
		}
		names[p.Name] = struct{}{}

		if p.Period <= 0 {
			err = errors.Join(err, fmt.Errorf("Config.Participants[%d].Period must be positive", i))
		}

		if _, ok := pins[p.Pin]; ok {
			err = errors.Join(err, fmt.Errorf("Config.Participants[%d].Pin %d is duplicated", i, p.Pin))
		}
		pins[p.Pin] = struct{}{}
	}

	if c.Timeout <= 0 {
		err = errors.Join(err, errors.New("Config.Timeout must be positive"))
	}

	return err
}
