// Package gapp wires the watchdog, participants, recovery coordinator,
// indicators, journal, metrics and status server into one running application.
package gapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/gordian-engine/gtwdt/gindicator"
	"github.com/gordian-engine/gtwdt/gjournal"
	"github.com/gordian-engine/gtwdt/gjournal/gjmemory"
	"github.com/gordian-engine/gtwdt/gjournal/gjsqlite"
	"github.com/gordian-engine/gtwdt/gparticipant"
	"github.com/gordian-engine/gtwdt/grecovery"
	"github.com/gordian-engine/gtwdt/gwatchdog"
	"github.com/gordian-engine/gtwdt/internal/ghttp"
	"github.com/gordian-engine/gtwdt/internal/glog"
	"github.com/gordian-engine/gtwdt/internal/gmetrics"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc

	Watchdog *gwatchdog.Watchdog
	Bank     *gindicator.Bank
	Signal   *grecovery.Signal
	Journal  gjournal.Journal
	Metrics  *gmetrics.Metrics

	coordinator *grecovery.Coordinator
	httpServer  *ghttp.HTTPServer
	httpAddr    net.Addr

	participants sync.WaitGroup
	waitOnce     sync.Once
}

// Start configures the indicators, creates the failure signal, initializes the watchdog,
// starts the recovery coordinator and then the participants, and returns.
//
// The application runs until ctx is canceled or a component fails;
// use [*App.Wait] to block until every goroutine has stopped.
func Start(ctx context.Context, log *slog.Logger, cfg Config, driver gindicator.Driver) (*App, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %w", err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	a := &App{
		log: log,

		ctx:    ctx,
		cancel: cancel,
	}

	ok := false
	defer func() {
		if !ok {
			cancel(nil)
			a.waitStarted()
		}
	}()

	lines := make([]gindicator.LineConfig, len(cfg.Participants))
	for i, p := range cfg.Participants {
		lines[i] = gindicator.LineConfig{Name: p.Name, Pin: p.Pin}
	}
	bank, err := gindicator.NewBank(log.With("sys", "indicator"), driver, lines)
	if err != nil {
		return nil, FatalError{Op: "configure indicators", Err: err}
	}
	a.Bank = bank

	a.Signal = grecovery.NewSignal()

	m, err := gmetrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, FatalError{Op: "register metrics", Err: err}
	}
	a.Metrics = m

	if cfg.JournalPath == "" {
		a.Journal = gjmemory.NewJournal()
	} else {
		j, err := gjsqlite.NewJournal(ctx, cfg.JournalPath)
		if err != nil {
			return nil, FatalError{Op: "open journal", Err: err}
		}
		log.Info("Opened recovery journal", "path", cfg.JournalPath, "build_type", j.BuildType)
		a.Journal = j
	}

	sig := a.Signal
	w, wCtx, err := gwatchdog.New(ctx, log.With("sys", "watchdog"), gwatchdog.Config{
		Timeout:        cfg.Timeout,
		MaxUsers:       cfg.MaxUsers,
		TriggerPanic:   cfg.TriggerPanic,
		TimeoutHandler: sig.SignalFailure,
	})
	if err != nil {
		return nil, FatalError{Op: "init watchdog", Err: err}
	}
	a.Watchdog = w

	// A watchdog termination ends the whole application with the same cause.
	context.AfterFunc(wCtx, func() {
		cancel(context.Cause(wCtx))
	})

	first, _ := bank.Line(cfg.Participants[0].Name)
	indicators := make(map[string]gindicator.Indicator, len(cfg.Participants))
	for _, l := range bank.Lines() {
		indicators[l.Name()] = l
	}

	c, err := grecovery.NewCoordinator(ctx, log.With("sys", "recovery"), grecovery.CoordinatorConfig{
		Signal:     sig,
		Dumper:     w,
		Variant:    cfg.Variant,
		Indicators: indicators,
		Fallback:   first,

		BlinkCycles: cfg.BlinkCycles,
		BlinkPeriod: cfg.BlinkPeriod,
		Settle:      cfg.Settle,

		Journal: a.Journal,
		Metrics: m,
	})
	if err != nil {
		return nil, FatalError{Op: "start recovery coordinator", Err: err}
	}
	a.coordinator = c

	if cfg.HTTPAddr != "" {
		ln, err := new(net.ListenConfig).Listen(ctx, "tcp", cfg.HTTPAddr)
		if err != nil {
			return nil, FatalError{Op: "listen for status server", Err: err}
		}
		a.httpAddr = ln.Addr()
		a.httpServer = ghttp.NewHTTPServer(ctx, log.With("sys", "http"), ghttp.HTTPServerConfig{
			Listener: ln,
			Users:    w,
			Journal:  a.Journal,
			Metrics:  m,
		})
	}

	for _, p := range cfg.Participants {
		ind, _ := bank.Line(p.Name)
		pCfg := gparticipant.Config{
			Name:      p.Name,
			Period:    p.Period,
			Registry:  w,
			Indicator: ind,
			Metrics:   m,
		}
		pLog := glog.P(log, p.Name)

		a.participants.Add(1)
		go func() {
			defer a.participants.Done()
			if err := gparticipant.Run(ctx, pLog, pCfg); err != nil {
				fe := FatalError{Op: "run participant", Participant: pCfg.Name, Err: err}
				var re gparticipant.RegistryError
				if errors.As(err, &re) {
					fe.Op, fe.Err = re.Op, re.Err
				}
				glog.PE(log, pCfg.Name, err).Error("Participant failed")
				cancel(fe)
			}
		}()
	}

	log.Info(
		"Task watchdog demo started",
		"variant", cfg.Variant,
		"participants", len(cfg.Participants),
		"timeout", cfg.Timeout,
	)

	ok = true
	return a, nil
}

// Context is canceled when the application stops.
func (a *App) Context() context.Context {
	return a.ctx
}

// HTTPAddr is the address the status server listens on,
// or nil if it is disabled.
func (a *App) HTTPAddr() net.Addr {
	return a.httpAddr
}

// Stop cancels the application without an error cause.
func (a *App) Stop() {
	a.cancel(nil)
}

// Wait blocks until every goroutine has stopped, then closes the journal.
// It returns the [FatalError] or [gwatchdog.TimeoutError] that stopped the application,
// or nil if it was stopped by cancellation.
func (a *App) Wait() error {
	<-a.ctx.Done()
	a.waitStarted()

	cause := context.Cause(a.ctx)

	var fe FatalError
	var te gwatchdog.TimeoutError
	if errors.As(cause, &fe) || errors.As(cause, &te) {
		return cause
	}
	return nil
}

// waitStarted waits for whatever components were started, then closes the journal.
// Only the first call has any effect.
func (a *App) waitStarted() {
	a.waitOnce.Do(a.doWait)
}

func (a *App) doWait() {
	a.participants.Wait()
	if a.coordinator != nil {
		a.coordinator.Wait()
	}
	if a.httpServer != nil {
		a.httpServer.Wait()
	}
	if a.Watchdog != nil {
		a.Watchdog.Wait()
	}
	if a.Journal != nil {
		if err := a.Journal.Close(); err != nil {
			a.log.Warn("Failed to close recovery journal", "err", err)
		}
	}
}
