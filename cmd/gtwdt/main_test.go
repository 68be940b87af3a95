package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gordian-engine/gtwdt/gjournal"
	"github.com/gordian-engine/gtwdt/gjournal/gjmemory"
	"github.com/gordian-engine/gtwdt/gwatchdog"
	"github.com/gordian-engine/gtwdt/internal/ghttp"
	"github.com/gordian-engine/gtwdt/internal/gtest"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, ctx context.Context, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	root := NewRootCmd(gtest.NewLogger(t))
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)
	return outBuf.String(), errBuf.String(), err
}

func TestScheduleCmd(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, context.Background(), "schedule")
	require.NoError(t, err)

	require.Contains(t, out, "skip (warn)")
	require.Contains(t, out, "check in, wrap")

	// Header, 31 rows, and the table borders.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 32)
}

func TestScheduleCmd_invalidIterations(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, context.Background(), "schedule", "--iterations", "0")
	require.ErrorContains(t, err, "--iterations must be positive")
}

func TestRunCmd_invalidFlags(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		args []string
		want string
	}{
		{args: []string{"run", "--variant", "both"}, want: "unknown recovery variant"},
		{args: []string{"run", "--indicator", "lcd"}, want: "invalid indicator backend"},
		{args: []string{"run", "--log-format", "xml"}, want: "invalid log format"},
		{args: []string{"run", "--log-level", "loud"}, want: "invalid log level"},
		{args: []string{"run", "--timeout", "0s"}, want: "Config.Timeout must be positive"},
		{args: []string{"run", "--config", "/does/not/exist.yaml"}, want: "failed to read config file"},
	} {
		t.Run(strings.Join(tc.args[1:], " "), func(t *testing.T) {
			t.Parallel()

			_, _, err := execute(t, context.Background(), tc.args...)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestRunCmd_stopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), gtest.ScaleMs(300).Dur())
	defer cancel()

	_, stderr, err := execute(t, ctx, "run", "--variant", "single", "--log-format", "json")
	require.NoError(t, err)
	require.Contains(t, stderr, `"msg":"Task watchdog demo started"`)
}

func TestRunCmd_triggerPanic(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), gtest.ScaleMs(5000).Dur())
	defer cancel()

	_, _, err := execute(t, ctx, "run", "--variant", "single", "--timeout", "150ms", "--trigger-panic")

	var te gwatchdog.TimeoutError
	require.ErrorAs(t, err, &te)
}

func TestRunCmd_configFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gtwdt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variant: single\ntimeout: 150ms\ntrigger-panic: true\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), gtest.ScaleMs(5000).Dur())
	defer cancel()

	_, _, err := execute(t, ctx, "run", "--config", path)

	var te gwatchdog.TimeoutError
	require.ErrorAs(t, err, &te)
}

func TestStatusCmd(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := (new(net.ListenConfig)).Listen(ctx, "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	log := gtest.NewLogger(t)
	w, _, err := gwatchdog.New(ctx, log, gwatchdog.Config{Timeout: time.Hour})
	require.NoError(t, err)
	defer w.Wait()
	defer cancel()

	_, err = w.AddUser(ctx, "test_user")
	require.NoError(t, err)

	j := gjmemory.NewJournal()
	_, err = j.Append(ctx, gjournal.Record{
		At:          time.Now(),
		Participant: "test_user",
		Captured:    true,
		Action:      gjournal.ActionBlink,
	})
	require.NoError(t, err)

	h := ghttp.NewHTTPServer(ctx, log, ghttp.HTTPServerConfig{
		Listener: ln,
		Users:    w,
		Journal:  j,
	})
	defer h.Wait()
	defer cancel()

	out, _, err := execute(t, ctx, "status", "--addr", ln.Addr().String())
	require.NoError(t, err)
	require.Contains(t, out, "test_user")
	require.Contains(t, out, "blink")
}

func TestStatusCmd_unreachable(t *testing.T) {
	t.Parallel()

	// Reserve a port, then close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, _, err = execute(t, context.Background(), "status", "--addr", addr)
	require.Error(t, err)
}
