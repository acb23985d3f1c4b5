package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/envrt/internal/construct"
	"github.com/roach88/envrt/internal/testutil"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	for i := 0; i < 3; i++ {
		j, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, j.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	j := openTestJournal(t)

	mode, err := j.pragma("journal_mode")
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)

	timeout, err := j.pragma("busy_timeout")
	require.NoError(t, err)
	assert.Equal(t, "5000", timeout)

	version, err := j.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	_, err = j.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion+1))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, ErrSchemaVersion)

	// The newer database is left as it was.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion+1, version)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "journal.db"))
	assert.Error(t, err)
}

func TestClose_Twice(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)

	require.NoError(t, j.Close())
	assert.NoError(t, j.Close())
}

func TestClose_ReleasesGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	j, err := Open(filepath.Join(t.TempDir(), "leak.db"))
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), construct.Event{
		EnvironmentID: "env-1", Seq: 1, Kind: construct.EventClear, Outcome: construct.OutcomeOK,
	}))
	require.NoError(t, j.Close())
}

func TestRecord_ListOrderedBySeq(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	for _, seq := range []int64{3, 1, 2} {
		require.NoError(t, j.Record(ctx, construct.Event{
			EnvironmentID: "env-1",
			Seq:           seq,
			Kind:          construct.EventClear,
			Outcome:       construct.OutcomeOK,
		}))
	}

	events, err := j.List(ctx, "env-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, construct.EventClear, ev.Kind)
	}
}

func TestRecord_Idempotent(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	ev := construct.Event{
		EnvironmentID: "env-1",
		Seq:           1,
		Kind:          construct.EventClear,
		Outcome:       construct.OutcomeBusy,
	}

	require.NoError(t, j.Record(ctx, ev))
	ev.Outcome = construct.OutcomeOK
	require.NoError(t, j.Record(ctx, ev))

	events, err := j.List(ctx, "env-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, construct.OutcomeBusy, events[0].Outcome, "first write wins")
}

func TestList_Empty(t *testing.T) {
	j := openTestJournal(t)

	events, err := j.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestEnvironments_FirstSeenOrder(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	for _, ev := range []construct.Event{
		{EnvironmentID: "b", Seq: 1, Kind: construct.EventClear, Outcome: construct.OutcomeOK},
		{EnvironmentID: "a", Seq: 1, Kind: construct.EventClear, Outcome: construct.OutcomeOK},
		{EnvironmentID: "b", Seq: 2, Kind: construct.EventClear, Outcome: construct.OutcomeOK},
	} {
		require.NoError(t, j.Record(ctx, ev))
	}

	ids, err := j.Environments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)

	all, err := j.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].EnvironmentID)
	assert.Equal(t, "b", all[1].EnvironmentID)
	assert.Equal(t, int64(2), all[1].Seq)
	assert.Equal(t, "a", all[2].EnvironmentID)
}

func TestLastSeq(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	seq, err := j.LastSeq(ctx, "env-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, j.Record(ctx, construct.Event{EnvironmentID: "env-1", Seq: 7, Kind: construct.EventClear, Outcome: construct.OutcomeOK}))

	seq, err = j.LastSeq(ctx, "env-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func TestRecorder_PersistsClearOutcomes(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	env, err := construct.New(
		construct.WithRecorder(NewRecorder(ctx, j)),
		construct.WithIDGenerator(testutil.NewFixedIDGenerator("env")),
		construct.WithClock(testutil.NewDeterministicClock()),
		construct.WithoutHierarchyTeardown(),
	)
	require.NoError(t, err)

	busy := true
	require.NoError(t, env.RegisterReadyCheck("gate", func(*construct.Environment) bool { return !busy }))
	require.NoError(t, env.RegisterTeardown("boom", construct.Legacy(func() { panic("x") })))

	assert.True(t, construct.IsClearBusy(env.Reset()))
	busy = false
	require.NoError(t, env.Reset())

	events, err := j.List(ctx, "env-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, construct.OutcomeBusy, events[0].Outcome)
	assert.Equal(t, construct.EventTeardown, events[1].Kind)
	assert.Equal(t, construct.OutcomePanicked, events[1].Outcome)
	assert.Equal(t, "boom", events[1].Detail)
	assert.Equal(t, construct.OutcomeOK, events[2].Outcome)
	assert.Equal(t, "teardowns=1 failed=1", events[2].Detail)
}
