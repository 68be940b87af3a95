// Package gchan contains the channel helpers used by the watchdog kernel
// and its callers, with consistent log formatting on cancellation.
package gchan

import (
	"context"
	"log/slog"
)

// SendC selects between ctx.Done and sending val to out.
// If ctx is canceled first, SendC logs "Context canceled while " + canceledDuring
// at debug level and reports false.
func SendC[T any](ctx context.Context, log *slog.Logger, out chan<- T, val T, canceledDuring string) (sent bool) {
	select {
	case <-ctx.Done():
		log.Debug("Context canceled while "+canceledDuring, "cause", context.Cause(ctx))
		return false
	case out <- val:
		return true
	}
}

// RecvC selects between ctx.Done and receiving from in.
// If ctx is canceled first, RecvC logs "Context canceled while " + canceledDuring
// at debug level and returns the zero value of T and false.
func RecvC[T any](ctx context.Context, log *slog.Logger, in <-chan T, canceledDuring string) (val T, received bool) {
	select {
	case <-ctx.Done():
		log.Debug("Context canceled while "+canceledDuring, "cause", context.Cause(ctx))
		return val, false
	case val := <-in:
		return val, true
	}
}

// ReqResp sends reqValue to reqChan and then waits for a value on respChan.
// If ctx is canceled during either step, it returns the zero value of U and false.
//
// respChan should be buffered so the responder never blocks
// on a caller that has already given up.
func ReqResp[T, U any](
	ctx context.Context, log *slog.Logger,
	reqChan chan<- T, reqValue T,
	respChan <-chan U,
	reqRespType string,
) (respVal U, ok bool) {
	if !SendC(ctx, log, reqChan, reqValue, "making "+reqRespType+" request") {
		return respVal, false
	}

	return RecvC(ctx, log, respChan, "receiving "+reqRespType+" response")
}
