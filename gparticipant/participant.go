// Package gparticipant runs the scripted check-in loop of one watchdog participant.
package gparticipant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordian-engine/gtwdt/gindicator"
	"github.com/gordian-engine/gtwdt/gwatchdog"
	"github.com/gordian-engine/gtwdt/internal/gmetrics"
)

// Registry is the subset of [*gwatchdog.Watchdog] a participant uses.
type Registry interface {
	AddUser(ctx context.Context, name string) (gwatchdog.UserHandle, error)
	ResetUser(ctx context.Context, h gwatchdog.UserHandle) error
}

type Config struct {
	Name   string
	Period time.Duration

	Registry  Registry
	Indicator gindicator.Indicator

	// Optional.
	Metrics *gmetrics.Metrics

	// If set, every completed step is sent here.
	Steps chan<- Step
}

func (c Config) validate() error {
	var err error
	if c.Name == "" {
		err = errors.Join(err, errors.New("Config.Name must not be empty"))
	}
	if c.Period <= 0 {
		err = errors.Join(err, errors.New("Config.Period must be positive"))
	}
	if c.Registry == nil {
		err = errors.Join(err, errors.New("Config.Registry must not be nil"))
	}
	if c.Indicator == nil {
		err = errors.Join(err, errors.New("Config.Indicator must not be nil"))
	}
	return err
}

// RegistryError is returned by [Run] when a watchdog call fails.
// The participant cannot continue after one.
type RegistryError struct {
	Op  string
	Err error
}

func (e RegistryError) Error() string {
	return fmt.Sprintf("watchdog %s failed: %v", e.Op, e.Err)
}

func (e RegistryError) Unwrap() error {
	return e.Err
}

// Run registers cfg.Name with the registry and then runs one [Next] step
// every cfg.Period, starting immediately.
//
// Run returns nil once ctx is canceled,
// or a [RegistryError] if registration or a check-in fails.
func Run(ctx context.Context, log *slog.Logger, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid participant config: %w", err)
	}

	h, err := cfg.Registry.AddUser(ctx, cfg.Name)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return RegistryError{Op: "add user", Err: err}
	}
	log.Info("Registered with task watchdog", "period", cfg.Period)

	timer := time.NewTimer(cfg.Period)
	defer timer.Stop()

	counter := 0
	for {
		s := Next(counter)
		counter = s.Counter

		log.Info("Participant running", "counter", s.Iteration)

		if s.CheckIn {
			if err := cfg.Registry.ResetUser(ctx, h); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return RegistryError{Op: "reset user", Err: err}
			}
			cfg.Metrics.CheckIn(cfg.Name)
			log.Debug("Reset watchdog deadline", "counter", s.Iteration)
		} else {
			cfg.Metrics.Skip(cfg.Name)
			if s.Warn {
				log.Warn("Not resetting watchdog; will trigger timeout", "counter", s.Iteration)
			}
		}

		on := s.IndicatorOn()
		if err := cfg.Indicator.Set(on); err != nil {
			log.Warn("Failed to set indicator", "err", err)
		}
		cfg.Metrics.Indicator(cfg.Name, on)

		if cfg.Steps != nil {
			select {
			case <-ctx.Done():
				return nil
			case cfg.Steps <- s:
			}
		}

		timer.Reset(cfg.Period)
		select {
		case <-ctx.Done():
			log.Info("Stopping due to context cancellation", "cause", context.Cause(ctx))
			return nil
		case <-timer.C:
		}
	}
}
