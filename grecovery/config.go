package grecovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordian-engine/gtwdt/gindicator"
	"github.com/gordian-engine/gtwdt/gjournal"
	"github.com/gordian-engine/gtwdt/internal/gmetrics"
)

// Variant selects what the coordinator does with the captured participant name.
type Variant string

const (
	// VariantSingle blinks the fallback indicator on every failure,
	// whether or not a name was captured.
	VariantSingle Variant = "single"

	// VariantMulti blinks the indicator registered for the captured name,
	// and only logs when nothing was captured or no indicator matches.
	VariantMulti Variant = "multi"
)

// ParseVariant accepts "single" or "multi".
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantSingle, VariantMulti:
		return v, nil
	default:
		return "", fmt.Errorf("unknown recovery variant %q (want %q or %q)", s, VariantSingle, VariantMulti)
	}
}

const (
	DefaultBlinkCycles = 10
	DefaultBlinkPeriod = 100 * time.Millisecond
	DefaultSettle      = 100 * time.Millisecond
)

type CoordinatorConfig struct {
	// Required.
	Signal *Signal
	Dumper Dumper

	Variant Variant

	// Indicators by participant name, used by [VariantMulti].
	Indicators map[string]gindicator.Indicator

	// Used by [VariantSingle]; required for it.
	Fallback gindicator.Indicator

	// Zero values fall back to the Default constants.
	BlinkCycles int
	BlinkPeriod time.Duration
	Settle      time.Duration

	// Optional.
	Journal gjournal.Journal
	Metrics *gmetrics.Metrics

	// If set, every completed cycle's record is sent here.
	Cycles chan<- gjournal.Record
}

func (c CoordinatorConfig) validate() error {
	var err error

	if c.Signal == nil {
		err = errors.Join(err, errors.New("CoordinatorConfig.Signal must not be nil"))
	}
	if c.Dumper == nil {
		err = errors.Join(err, errors.New("CoordinatorConfig.Dumper must not be nil"))
	}

	switch c.Variant {
	case VariantMulti:
		// Okay.
	case VariantSingle:
		if c.Fallback == nil {
			err = errors.Join(err, errors.New("CoordinatorConfig.Fallback is required for the single variant"))
		}
	default:
		err = errors.Join(err, fmt.Errorf("CoordinatorConfig.Variant %q is invalid", c.Variant))
	}

	if c.BlinkCycles < 0 {
		err = errors.Join(err, errors.New("CoordinatorConfig.BlinkCycles must not be negative"))
	}
	if c.BlinkPeriod < 0 {
		err = errors.Join(err, errors.New("CoordinatorConfig.BlinkPeriod must not be negative"))
	}
	if c.Settle < 0 {
		err = errors.Join(err, errors.New("CoordinatorConfig.Settle must not be negative"))
	}

	return err
}

func (c *CoordinatorConfig) setDefaults() {
	if c.BlinkCycles == 0 {
		c.BlinkCycles = DefaultBlinkCycles
	}
	if c.BlinkPeriod == 0 {
		c.BlinkPeriod = DefaultBlinkPeriod
	}
	if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
}
