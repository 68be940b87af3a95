package glog

import "log/slog"

// P returns a copy of log that includes the participant name.
func P(log *slog.Logger, name string) *slog.Logger {
	return log.With("participant", name)
}

// PE returns a copy of log that includes the participant name and an error.
func PE(log *slog.Logger, name string, e error) *slog.Logger {
	return log.With("participant", name, "err", e)
}
