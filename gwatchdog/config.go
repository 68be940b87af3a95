package gwatchdog

import (
	"errors"
	"time"
)

// DefaultMaxUsers is used when [Config.MaxUsers] is zero.
const DefaultMaxUsers = 8

type Config struct {
	// Length of the shared window.
	// Every registered user must reset within this duration.
	Timeout time.Duration

	// Upper bound on registered users. Zero means [DefaultMaxUsers].
	MaxUsers int

	// When set, an expired window with overdue users also cancels
	// the context returned by [New] with a [TimeoutError] cause,
	// after TimeoutHandler returns.
	TriggerPanic bool

	// Called on the watchdog kernel goroutine once for every expired window
	// in which at least one user had not reset.
	// It must not block and must not call methods on the Watchdog.
	TimeoutHandler func()
}

func (c Config) validate() error {
	var err error
	if c.Timeout <= 0 {
		err = errors.Join(err, errors.New("Config.Timeout must be positive"))
	}

	if c.MaxUsers < 0 {
		err = errors.Join(err, errors.New("Config.MaxUsers must not be negative"))
	}

	return err
}

func (c Config) maxUsers() int {
	if c.MaxUsers == 0 {
		return DefaultMaxUsers
	}
	return c.MaxUsers
}
