// Package ghttp serves read-only JSON views of a running watchdog demo,
// and contains the client used by the status command.
package ghttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gordian-engine/gtwdt/gjournal"
	"github.com/gordian-engine/gtwdt/gwatchdog"
	"github.com/gordian-engine/gtwdt/internal/gmetrics"
	"github.com/gorilla/mux"
)

// UserLister is satisfied by [*gwatchdog.Watchdog].
type UserLister interface {
	Users(ctx context.Context) ([]gwatchdog.UserStatus, error)
}

type HTTPServer struct {
	done chan struct{}
}

type HTTPServerConfig struct {
	Listener net.Listener

	Users UserLister

	// Optional; /recoveries returns an empty list without it.
	Journal gjournal.Journal

	// Optional; /metrics serves the default registry without it.
	Metrics *gmetrics.Metrics
}

// Participant is the JSON form of one watchdog user.
type Participant struct {
	Name      string
	HasReset  bool
	LastReset time.Time
	Misses    int
}

// Recovery is the JSON form of one journal record.
type Recovery struct {
	Seq         uint64
	At          time.Time
	Participant string
	Captured    bool
	Action      string
}

func NewHTTPServer(ctx context.Context, log *slog.Logger, cfg HTTPServerConfig) *HTTPServer {
	srv := &http.Server{
		Handler: newMux(log, cfg),

		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	h := &HTTPServer{
		done: make(chan struct{}),
	}
	go h.serve(log, cfg.Listener, srv)
	go h.waitForShutdown(ctx, srv)

	return h
}

func (h *HTTPServer) Wait() {
	<-h.done
}

func (h *HTTPServer) waitForShutdown(ctx context.Context, srv *http.Server) {
	select {
	case <-h.done:
		// h.serve returned on its own, nothing left to do here.
		return
	case <-ctx.Done():
		_ = srv.Close()
	}
}

func (h *HTTPServer) serve(log *slog.Logger, ln net.Listener, srv *http.Server) {
	defer close(h.done)

	log.Info("HTTP server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil {
		if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
			log.Info("HTTP server shutting down")
		} else {
			log.Info("HTTP server shutting down due to error", "err", err)
		}
	}
}

func newMux(log *slog.Logger, cfg HTTPServerConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/participants", handleParticipants(log, cfg)).Methods("GET")
	r.HandleFunc("/recoveries", handleRecoveries(log, cfg)).Methods("GET")
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods("GET")

	return r
}

func handleParticipants(log *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		users, err := cfg.Users.Users(req.Context())
		if err != nil {
			http.Error(
				w,
				fmt.Sprintf("failed to list watchdog users: %v", err),
				http.StatusInternalServerError,
			)
			return
		}

		out := make([]Participant, len(users))
		for i, u := range users {
			out[i] = Participant{
				Name:      u.Name,
				HasReset:  u.HasReset,
				LastReset: u.LastReset,
				Misses:    u.Misses,
			}
		}

		if err := json.NewEncoder(w).Encode(out); err != nil {
			log.Warn("Failed to marshal participants", "err", err)
			return
		}
	}
}

func handleRecoveries(log *slog.Logger, cfg HTTPServerConfig) func(w http.ResponseWriter, req *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		limit := 0
		if s := req.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, fmt.Sprintf("invalid limit %q", s), http.StatusBadRequest)
				return
			}
			limit = n
		}

		out := []Recovery{}
		if cfg.Journal != nil {
			rs, err := cfg.Journal.Recent(req.Context(), limit)
			if err != nil {
				http.Error(
					w,
					fmt.Sprintf("failed to read recovery journal: %v", err),
					http.StatusInternalServerError,
				)
				return
			}
			for _, r := range rs {
				out = append(out, Recovery{
					Seq:         r.Seq,
					At:          r.At,
					Participant: r.Participant,
					Captured:    r.Captured,
					Action:      string(r.Action),
				})
			}
		}

		if err := json.NewEncoder(w).Encode(out); err != nil {
			log.Warn("Failed to marshal recoveries", "err", err)
			return
		}
	}
}
