// Package gjournal records every recovery cycle the coordinator performs.
//
// The [Journal] interface has an in-memory implementation in [gjmemory]
// and a sqlite implementation in [gjsqlite].
// Implementations are validated with the compliance tests in [gjournaltest].
package gjournal

import (
	"context"
	"log/slog"
	"time"
)

// Action is the remediation taken in a recovery cycle.
type Action string

const (
	// The failed participant's indicator was blinked.
	ActionBlink Action = "blink"

	// No indicator was associated with the failure, so only logging happened.
	ActionNone Action = "none"
)

// Record is one completed recovery cycle.
type Record struct {
	// Assigned by [Journal.Append], starting at 1.
	Seq uint64

	At time.Time

	// Name read from the diagnostic dump.
	// Empty when Captured is false.
	Participant string
	Captured    bool

	Action Action
}

func (r Record) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("seq", r.Seq),
		slog.String("participant", r.Participant),
		slog.Bool("captured", r.Captured),
		slog.String("action", string(r.Action)),
	)
}

type Journal interface {
	// Append stores r with the next sequence number and returns the stored record.
	Append(ctx context.Context, r Record) (Record, error)

	// Recent returns up to limit records, newest first.
	// A non-positive limit returns every record.
	Recent(ctx context.Context, limit int) ([]Record, error)

	Close() error
}
