package gtest

import (
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"
)

// NewLogger returns a *slog.Logger that writes through t.Log,
// so output is attributed to the test that produced it.
func NewLogger(t testing.TB) *slog.Logger {
	return slogt.New(t, slogt.Text())
}
