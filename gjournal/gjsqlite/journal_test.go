package gjsqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gordian-engine/gtwdt/gjournal"
	"github.com/gordian-engine/gtwdt/gjournal/gjournaltest"
	"github.com/gordian-engine/gtwdt/gjournal/gjsqlite"
	"github.com/stretchr/testify/require"
)

func TestNewJournal(t *testing.T) {
	t.Parallel()

	j, err := gjsqlite.NewJournal(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NotNil(t, j)

	// Helpful output in the simplest test, if there is uncertainty which type was built.
	t.Logf("Tests are for build type %s", j.BuildType)

	require.NoError(t, j.Close())
}

func TestJournalCompliance(t *testing.T) {
	t.Parallel()

	gjournaltest.TestJournalCompliance(t, func(cleanup func(func())) (gjournal.Journal, error) {
		j, err := gjsqlite.NewJournal(context.Background(), ":memory:")
		if err != nil {
			return nil, err
		}
		cleanup(func() {
			_ = j.Close()
		})
		return j, nil
	})
}

func TestJournal_reopenOnDisk(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.sqlite")

	j, err := gjsqlite.NewJournal(ctx, path)
	require.NoError(t, err)

	_, err = j.Append(ctx, gjournal.Record{
		At:          time.Unix(1_700_000_000, 0),
		Participant: "test_user",
		Captured:    true,
		Action:      gjournal.ActionBlink,
	})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	// Reopening runs the migration check again without recreating the table.
	j, err = gjsqlite.NewJournal(ctx, path)
	require.NoError(t, err)
	defer j.Close()

	rs, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	require.Equal(t, "test_user", rs[0].Participant)

	r, err := j.Append(ctx, gjournal.Record{At: time.Unix(1_700_000_001, 0), Action: gjournal.ActionNone})
	require.NoError(t, err)
	require.Equal(t, uint64(2), r.Seq)
}
