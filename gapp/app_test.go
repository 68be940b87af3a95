package gapp_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gordian-engine/gtwdt/gapp"
	"github.com/gordian-engine/gtwdt/gindicator"
	"github.com/gordian-engine/gtwdt/gjournal"
	"github.com/gordian-engine/gtwdt/grecovery"
	"github.com/gordian-engine/gtwdt/gwatchdog"
	"github.com/gordian-engine/gtwdt/internal/ghttp"
	"github.com/gordian-engine/gtwdt/internal/gtest"
	"github.com/stretchr/testify/require"
)

// fastConfig shrinks the demo timings so that the first skip run
// (iterations 4-10) outlasts the watchdog window.
func fastConfig(v grecovery.Variant) gapp.Config {
	cfg := gapp.DefaultConfig(v)
	for i := range cfg.Participants {
		cfg.Participants[i].Period = cfg.Participants[i].Period / 40
	}
	cfg.Timeout = gapp.DefaultTimeout / 40
	cfg.BlinkPeriod = time.Millisecond
	cfg.Settle = time.Millisecond
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	single := gapp.DefaultConfig(grecovery.VariantSingle)
	require.Equal(t, []gapp.ParticipantConfig{
		{Name: "test_user", Period: time.Second, Pin: 2},
	}, single.Participants)
	require.Equal(t, 5*time.Second, single.Timeout)
	require.False(t, single.TriggerPanic)

	multi := gapp.DefaultConfig(grecovery.VariantMulti)
	require.Equal(t, []gapp.ParticipantConfig{
		{Name: "test_user", Period: time.Second, Pin: 2},
		{Name: "test_2_user", Period: 1500 * time.Millisecond, Pin: 15},
	}, multi.Participants)
	require.Equal(t, 10, multi.BlinkCycles)
	require.Equal(t, 100*time.Millisecond, multi.BlinkPeriod)
}

func TestStart_invalidConfig(t *testing.T) {
	t.Parallel()

	_, err := gapp.Start(context.Background(), gtest.NewLogger(t), gapp.Config{
		Variant: "x",
		Participants: []gapp.ParticipantConfig{
			{Name: "a", Period: time.Second, Pin: 1},
			{Name: "a", Period: 0, Pin: 1},
		},
	}, gindicator.NewMemoryDriver())

	require.ErrorContains(t, err, "Config.Variant")
	require.ErrorContains(t, err, `Config.Participants[1].Name "a" is duplicated`)
	require.ErrorContains(t, err, "Config.Participants[1].Period must be positive")
	require.ErrorContains(t, err, "Config.Participants[1].Pin 1 is duplicated")
	require.ErrorContains(t, err, "Config.Timeout must be positive")
}

func TestStart_indicatorFailureIsFatal(t *testing.T) {
	t.Parallel()

	d := gindicator.NewMemoryDriver()
	// Pin 2 is taken before the app can configure it.
	require.NoError(t, d.ConfigureOutput(gindicator.PinConfig{Pin: 2}))

	_, err := gapp.Start(context.Background(), gtest.NewLogger(t), fastConfig(grecovery.VariantMulti), d)

	var fe gapp.FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "configure indicators", fe.Op)
}

func TestApp_multi_recoversFailedParticipant(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := gindicator.NewMemoryDriver()
	a, err := gapp.Start(ctx, gtest.NewLogger(t), fastConfig(grecovery.VariantMulti), d)
	require.NoError(t, err)

	// Both lines are configured as plain outputs and start off.
	for _, pin := range []int{2, 15} {
		pc, ok := d.Config(pin)
		require.True(t, ok)
		require.Equal(t, gindicator.PinConfig{Pin: pin}, pc)
	}

	var recs []gjournal.Record
	require.Eventually(t, func() bool {
		rs, err := a.Journal.Recent(ctx, 0)
		if err != nil {
			return false
		}
		recs = rs
		return len(recs) > 0
	}, gtest.ScaleMs(2000).Dur(), 10*time.Millisecond)

	r := recs[len(recs)-1]
	require.True(t, r.Captured)
	require.Contains(t, []string{"test_user", "test_2_user"}, r.Participant)
	require.Equal(t, gjournal.ActionBlink, r.Action)

	users, err := a.Watchdog.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	a.Stop()
	require.NoError(t, a.Wait())
}

func TestApp_triggerPanicStopsApp(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := fastConfig(grecovery.VariantSingle)
	cfg.TriggerPanic = true
	a, err := gapp.Start(ctx, gtest.NewLogger(t), cfg, gindicator.NewMemoryDriver())
	require.NoError(t, err)

	_ = gtest.ReceiveOrTimeout(t, a.Context().Done(), gtest.ScaleMs(2000))

	err = a.Wait()
	var te gwatchdog.TimeoutError
	require.ErrorAs(t, err, &te)
	require.Equal(t, []string{"test_user"}, te.Users)
}

func TestApp_registryFailureIsFatal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := fastConfig(grecovery.VariantMulti)
	cfg.MaxUsers = 1
	a, err := gapp.Start(ctx, gtest.NewLogger(t), cfg, gindicator.NewMemoryDriver())
	require.NoError(t, err)

	_ = gtest.ReceiveOrTimeout(t, a.Context().Done(), gtest.ScaleMs(1000))

	err = a.Wait()
	var fe gapp.FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "add user", fe.Op)
	require.ErrorIs(t, err, gwatchdog.ErrTableFull)
}

func TestApp_statusServerAndSqliteJournal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := fastConfig(grecovery.VariantMulti)
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.JournalPath = filepath.Join(t.TempDir(), "journal.sqlite")

	a, err := gapp.Start(ctx, gtest.NewLogger(t), cfg, gindicator.NewMemoryDriver())
	require.NoError(t, err)
	require.NotNil(t, a.HTTPAddr())

	c := ghttp.Client{BaseURL: a.HTTPAddr().String()}

	require.Eventually(t, func() bool {
		ps, err := c.Participants(ctx)
		return err == nil && len(ps) == 2
	}, gtest.ScaleMs(500).Dur(), 10*time.Millisecond)

	require.Eventually(t, func() bool {
		rs, err := c.Recoveries(ctx, 1)
		return err == nil && len(rs) == 1
	}, gtest.ScaleMs(2000).Dur(), 10*time.Millisecond)

	cancel()
	require.NoError(t, a.Wait())
}
