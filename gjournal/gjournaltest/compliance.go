// Package gjournaltest contains compliance tests for [gjournal.Journal] implementations.
package gjournaltest

import (
	"context"
	"testing"
	"time"

	"github.com/gordian-engine/gtwdt/gjournal"
	"github.com/stretchr/testify/require"
)

type JournalFactory func(cleanup func(func())) (gjournal.Journal, error)

func TestJournalCompliance(t *testing.T, f JournalFactory) {
	t.Run("empty journal", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		j, err := f(t.Cleanup)
		require.NoError(t, err)

		rs, err := j.Recent(ctx, 10)
		require.NoError(t, err)
		require.Empty(t, rs)
	})

	t.Run("append assigns sequence numbers", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		j, err := f(t.Cleanup)
		require.NoError(t, err)

		at := time.Unix(1_700_000_000, 0)
		r1, err := j.Append(ctx, gjournal.Record{
			At:          at,
			Participant: "test_user",
			Captured:    true,
			Action:      gjournal.ActionBlink,
		})
		require.NoError(t, err)
		require.Equal(t, uint64(1), r1.Seq)

		r2, err := j.Append(ctx, gjournal.Record{
			At:     at.Add(time.Second),
			Action: gjournal.ActionNone,
		})
		require.NoError(t, err)
		require.Equal(t, uint64(2), r2.Seq)
	})

	t.Run("recent is newest first and honors limit", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		j, err := f(t.Cleanup)
		require.NoError(t, err)

		at := time.Unix(1_700_000_000, 0)
		names := []string{"test_user", "test_2_user", "test_user"}
		for i, name := range names {
			_, err := j.Append(ctx, gjournal.Record{
				At:          at.Add(time.Duration(i) * time.Second),
				Participant: name,
				Captured:    true,
				Action:      gjournal.ActionBlink,
			})
			require.NoError(t, err)
		}

		all, err := j.Recent(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, uint64(3), all[0].Seq)
		require.Equal(t, uint64(1), all[2].Seq)
		require.Equal(t, "test_2_user", all[1].Participant)
		require.True(t, all[1].At.Equal(at.Add(time.Second)))
		require.True(t, all[1].Captured)
		require.Equal(t, gjournal.ActionBlink, all[1].Action)

		two, err := j.Recent(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, all[:2], two)
	})

	t.Run("uncaptured participant round trips", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		j, err := f(t.Cleanup)
		require.NoError(t, err)

		_, err = j.Append(ctx, gjournal.Record{At: time.Unix(1_700_000_000, 0), Action: gjournal.ActionNone})
		require.NoError(t, err)

		rs, err := j.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, rs, 1)
		require.False(t, rs[0].Captured)
		require.Empty(t, rs[0].Participant)
		require.Equal(t, gjournal.ActionNone, rs[0].Action)
	})
}
