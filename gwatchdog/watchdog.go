package gwatchdog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gordian-engine/gtwdt/internal/gchan"
	"github.com/gordian-engine/gtwdt/internal/glog"
)

type Watchdog struct {
	log *slog.Logger

	rootCtx context.Context
	cancel  context.CancelCauseFunc

	cfg Config

	addRequests      chan addRequest
	resetRequests    chan handleRequest
	deleteRequests   chan handleRequest
	snapshotRequests chan snapshotRequest

	done chan struct{}
}

// UserHandle identifies a user registered through [*Watchdog.AddUser].
// The zero value is never a valid handle.
type UserHandle struct {
	id uint64
}

// UserStatus is a point-in-time view of one registered user.
type UserStatus struct {
	Name string

	// Whether the user has reset in the current window.
	HasReset bool

	// Zero until the user's first reset.
	LastReset time.Time

	// Number of expired windows in which this user was overdue.
	Misses int
}

// New starts a watchdog whose window begins immediately.
//
// The returned context is derived from ctx and is canceled
// with a [TimeoutError] cause on a timeout when cfg.TriggerPanic is set,
// or with a [ForcedTerminationError] cause on a call to [*Watchdog.Terminate].
// The kernel goroutine runs until ctx is canceled.
func New(ctx context.Context, log *slog.Logger, cfg Config) (*Watchdog, context.Context, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid watchdog config: %w", err)
	}

	wCtx, cancel := context.WithCancelCause(ctx)
	w := &Watchdog{
		log: log,

		rootCtx: ctx,
		cancel:  cancel,

		cfg: cfg,

		// Unbuffered since requests are synchronous.
		addRequests:      make(chan addRequest),
		resetRequests:    make(chan handleRequest),
		deleteRequests:   make(chan handleRequest),
		snapshotRequests: make(chan snapshotRequest),

		done: make(chan struct{}),
	}
	go w.kernel(ctx)

	log.Info("Task watchdog initialized", "timeout", cfg.Timeout, "trigger_panic", cfg.TriggerPanic)
	return w, wCtx, nil
}

// Wait blocks until the kernel goroutine returns,
// which happens only after the context passed to [New] is canceled.
func (w *Watchdog) Wait() {
	<-w.done
}

// Terminate cancels the watchdog context with a [ForcedTerminationError] cause.
func (w *Watchdog) Terminate(reason string) {
	w.cancel(ForcedTerminationError{Reason: reason})
}

// AddUser registers name with the watchdog.
// The new user counts as having reset in the current window,
// so if every other user has also reset, a fresh window starts.
func (w *Watchdog) AddUser(ctx context.Context, name string) (UserHandle, error) {
	if name == "" {
		return UserHandle{}, ErrInvalidName
	}

	cctx, done := w.callCtx(ctx)
	defer done()

	req := addRequest{
		Name: name,
		Resp: make(chan addResponse, 1),
	}
	resp, ok := gchan.ReqResp(cctx, w.log, w.addRequests, req, req.Resp, "add user")
	if !ok {
		return UserHandle{}, context.Cause(cctx)
	}
	return resp.Handle, resp.Err
}

// ResetUser records that h checked in during the current window.
func (w *Watchdog) ResetUser(ctx context.Context, h UserHandle) error {
	return w.handleCall(ctx, w.resetRequests, h, "reset user")
}

// DeleteUser unregisters h. The handle is invalid afterwards.
func (w *Watchdog) DeleteUser(ctx context.Context, h UserHandle) error {
	return w.handleCall(ctx, w.deleteRequests, h, "delete user")
}

// Users returns the status of every registered user, in registration order.
func (w *Watchdog) Users(ctx context.Context) ([]UserStatus, error) {
	cctx, done := w.callCtx(ctx)
	defer done()

	req := snapshotRequest{Resp: make(chan []UserStatus, 1)}
	users, ok := gchan.ReqResp(cctx, w.log, w.snapshotRequests, req, req.Resp, "user snapshot")
	if !ok {
		return nil, context.Cause(cctx)
	}
	return users, nil
}

// Triggered returns the names of users that have not reset in the current window,
// in registration order.
func (w *Watchdog) Triggered(ctx context.Context) ([]string, error) {
	users, err := w.Users(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, u := range users {
		if !u.HasReset {
			names = append(names, u.Name)
		}
	}
	return names, nil
}

func (w *Watchdog) handleCall(ctx context.Context, ch chan<- handleRequest, h UserHandle, reqType string) error {
	if h.id == 0 {
		return ErrInvalidHandle
	}

	cctx, done := w.callCtx(ctx)
	defer done()

	req := handleRequest{
		Handle: h,
		Resp:   make(chan error, 1),
	}
	err, ok := gchan.ReqResp(cctx, w.log, ch, req, req.Resp, reqType)
	if !ok {
		return context.Cause(cctx)
	}
	return err
}

// callCtx returns a context derived from ctx that is also canceled,
// with cause [ErrStopped], once the kernel's root context is done.
func (w *Watchdog) callCtx(ctx context.Context) (context.Context, func()) {
	cctx, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(w.rootCtx, func() { cancel(ErrStopped) })
	return cctx, func() {
		stop()
		cancel(nil)
	}
}

type addRequest struct {
	Name string
	Resp chan addResponse
}

type addResponse struct {
	Handle UserHandle
	Err    error
}

type handleRequest struct {
	Handle UserHandle
	Resp   chan error
}

type snapshotRequest struct {
	Resp chan []UserStatus
}

// entry is the kernel's record of a registered user.
type entry struct {
	id        uint64
	name      string
	hasReset  bool
	lastReset time.Time
	misses    int
}

func (w *Watchdog) kernel(rootCtx context.Context) {
	defer close(w.done)

	var (
		entries []*entry
		nextID  uint64
	)

	timer := time.NewTimer(w.cfg.Timeout)
	defer timer.Stop()

	find := func(h UserHandle) int {
		for i, e := range entries {
			if e.id == h.id {
				return i
			}
		}
		return -1
	}

	// restartIfAllReset restarts the window and clears every flag
	// once all registered users have reset.
	restartIfAllReset := func() {
		for _, e := range entries {
			if !e.hasReset {
				return
			}
		}
		for _, e := range entries {
			e.hasReset = false
		}
		timer.Reset(w.cfg.Timeout)
	}

	for {
		select {
		case <-rootCtx.Done():
			w.log.Info("Stopping due to root context cancellation", "cause", context.Cause(rootCtx))
			return

		case req := <-w.addRequests:
			var resp addResponse
			switch {
			case len(entries) >= w.cfg.maxUsers():
				resp.Err = ErrTableFull
			case slices.ContainsFunc(entries, func(e *entry) bool { return e.name == req.Name }):
				resp.Err = fmt.Errorf("%w: %q", ErrDuplicateName, req.Name)
			default:
				nextID++
				entries = append(entries, &entry{
					id:       nextID,
					name:     req.Name,
					hasReset: true,
				})
				resp.Handle = UserHandle{id: nextID}
				w.log.Debug("Registered watchdog user", "name", req.Name)
				restartIfAllReset()
			}
			checkInvariants(entries, w.cfg.maxUsers())
			req.Resp <- resp

		case req := <-w.resetRequests:
			i := find(req.Handle)
			if i < 0 {
				req.Resp <- ErrInvalidHandle
				continue
			}
			e := entries[i]
			e.hasReset = true
			e.lastReset = time.Now()
			restartIfAllReset()
			req.Resp <- nil

		case req := <-w.deleteRequests:
			i := find(req.Handle)
			if i < 0 {
				req.Resp <- ErrInvalidHandle
				continue
			}
			w.log.Debug("Deleted watchdog user", "name", entries[i].name)
			entries = append(entries[:i], entries[i+1:]...)
			if len(entries) > 0 {
				restartIfAllReset()
			}
			checkInvariants(entries, w.cfg.maxUsers())
			req.Resp <- nil

		case req := <-w.snapshotRequests:
			users := make([]UserStatus, len(entries))
			for i, e := range entries {
				users[i] = UserStatus{
					Name:      e.name,
					HasReset:  e.hasReset,
					LastReset: e.lastReset,
					Misses:    e.misses,
				}
			}
			req.Resp <- users

		case <-timer.C:
			timer.Reset(w.cfg.Timeout)

			var overdue []string
			for _, e := range entries {
				if !e.hasReset {
					e.misses++
					overdue = append(overdue, e.name)
				}
			}
			if len(overdue) == 0 {
				continue
			}

			w.log.Warn("Task watchdog got triggered", "overdue", glog.Names(overdue))

			if w.cfg.TimeoutHandler != nil {
				w.cfg.TimeoutHandler()
			}

			if w.cfg.TriggerPanic {
				w.cancel(TimeoutError{Users: overdue})
			}
		}
	}
}
