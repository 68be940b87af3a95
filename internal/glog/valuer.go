package glog

import (
	"log/slog"
	"strings"
)

// Names renders a list of names as one comma-separated string,
// instead of the bracketed form slog uses for slices.
type Names []string

func (v Names) LogValue() slog.Value {
	return slog.StringValue(strings.Join(v, ", "))
}
