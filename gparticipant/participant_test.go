package gparticipant_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gordian-engine/gtwdt/gindicator"
	"github.com/gordian-engine/gtwdt/gparticipant"
	"github.com/gordian-engine/gtwdt/gwatchdog"
	"github.com/gordian-engine/gtwdt/internal/gtest"
	"github.com/stretchr/testify/require"
)

// fakeRegistry counts resets and fails on demand.
type fakeRegistry struct {
	mu sync.Mutex

	added  []string
	resets int

	addErr   error
	resetErr error
}

func (r *fakeRegistry) AddUser(_ context.Context, name string) (gwatchdog.UserHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return gwatchdog.UserHandle{}, r.addErr
	}
	r.added = append(r.added, name)
	return gwatchdog.UserHandle{}, nil
}

func (r *fakeRegistry) ResetUser(context.Context, gwatchdog.UserHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resetErr != nil {
		return r.resetErr
	}
	r.resets++
	return nil
}

func (r *fakeRegistry) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

func newIndicator(t *testing.T) (*gindicator.MemoryDriver, *gindicator.Line) {
	t.Helper()

	d := gindicator.NewMemoryDriver()
	b, err := gindicator.NewBank(gtest.NewLogger(t), d, []gindicator.LineConfig{{Name: "test_user", Pin: 2}})
	require.NoError(t, err)
	l, ok := b.Line("test_user")
	require.True(t, ok)
	return d, l
}

func TestRun_invalidConfig(t *testing.T) {
	t.Parallel()

	err := gparticipant.Run(context.Background(), gtest.NewLogger(t), gparticipant.Config{})
	require.ErrorContains(t, err, "Config.Name must not be empty")
	require.ErrorContains(t, err, "Config.Period must be positive")
	require.ErrorContains(t, err, "Config.Registry must not be nil")
	require.ErrorContains(t, err, "Config.Indicator must not be nil")
}

func TestRun_followsSchedule(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := new(fakeRegistry)
	d, ind := newIndicator(t)
	steps := make(chan gparticipant.Step)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gparticipant.Run(ctx, gtest.NewLogger(t), gparticipant.Config{
			Name:      "test_user",
			Period:    time.Millisecond,
			Registry:  reg,
			Indicator: ind,
			Steps:     steps,
		})
	}()

	counter := 0
	for range 31 {
		s := gtest.ReceiveSoon(t, steps)
		require.Equal(t, gparticipant.Next(counter), s)
		counter = s.Counter
		require.Equal(t, s.IndicatorOn(), d.Level(2))
	}

	require.Equal(t, 13, reg.Resets())
	require.Equal(t, []string{"test_user"}, reg.added)

	cancel()
	require.NoError(t, gtest.ReceiveSoon(t, errCh))
}

func TestRun_registryErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	for _, tc := range []struct {
		name   string
		reg    *fakeRegistry
		wantOp string
	}{
		{name: "add", reg: &fakeRegistry{addErr: errBoom}, wantOp: "add user"},
		{name: "reset", reg: &fakeRegistry{resetErr: errBoom}, wantOp: "reset user"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			_, ind := newIndicator(t)
			err := gparticipant.Run(ctx, gtest.NewLogger(t), gparticipant.Config{
				Name:      "test_user",
				Period:    time.Millisecond,
				Registry:  tc.reg,
				Indicator: ind,
			})

			var re gparticipant.RegistryError
			require.ErrorAs(t, err, &re)
			require.Equal(t, tc.wantOp, re.Op)
			require.ErrorIs(t, err, errBoom)
		})
	}
}

// Against a real watchdog, the skip run at 4-10 causes exactly one timeout
// before check-ins resume at 11.
func TestRun_skipTriggersOnce(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := gtest.NewLogger(t)

	var timeouts atomic.Int32
	w, _, err := gwatchdog.New(ctx, log.With("sys", "watchdog"), gwatchdog.Config{
		// Expires once during the skips at 4-10,
		// and iteration 11 resets before the following expiry.
		Timeout:        gtest.ScaleMs(220).Dur(),
		TimeoutHandler: func() { timeouts.Add(1) },
	})
	require.NoError(t, err)
	defer w.Wait()
	defer cancel()

	_, ind := newIndicator(t)
	steps := make(chan gparticipant.Step, 64)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gparticipant.Run(ctx, log, gparticipant.Config{
			Name:      "test_user",
			Period:    gtest.ScaleMs(50).Dur(),
			Registry:  w,
			Indicator: ind,
			Steps:     steps,
		})
	}()

	for {
		s := gtest.ReceiveOrTimeout(t, steps, gtest.ScaleMs(1000))
		if s.Iteration == 3 {
			require.Zero(t, timeouts.Load())
		}
		if s.Iteration == 15 {
			break
		}
	}
	require.Equal(t, int32(1), timeouts.Load())

	cancel()
	require.NoError(t, gtest.ReceiveSoon(t, errCh))
}
