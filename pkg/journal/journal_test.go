package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "data", "journal.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("", zerolog.Nop())
	assert.Error(t, err)
}

func TestRunLifecycle(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	start := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, j.Start(ctx, "run-1", "createtask", start))

	run, err := j.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)
	assert.Zero(t, run.Duration())

	require.NoError(t, j.Finish(ctx, "run-1", errors.New("element not visible"), "/tmp/shot.png", start.Add(3*time.Second)))

	run, err = j.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "element not visible", run.Error)
	assert.Equal(t, "/tmp/shot.png", run.Screenshot)
	assert.Equal(t, 3*time.Second, run.Duration())
}

func TestFinishUnknownRun(t *testing.T) {
	j := openTestJournal(t)
	assert.Error(t, j.Finish(context.Background(), "missing", nil, "", time.Now()))

	_, err := j.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestDuplicateRunID(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.Start(ctx, "run-1", "grades", time.Now()))
	assert.Error(t, j.Start(ctx, "run-1", "grades", time.Now()))
}

func TestRecentAndPrune(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, j.Start(ctx, "a", "grades", base))
	require.NoError(t, j.Start(ctx, "b", "timetable", base.Add(time.Minute)))
	require.NoError(t, j.Start(ctx, "c", "grades", base.Add(2*time.Minute)))
	require.NoError(t, j.Finish(ctx, "c", nil, "", base.Add(3*time.Minute)))

	runs, err := j.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Equal(t, StatusSucceeded, runs[0].Status)

	runs, err = j.Recent(ctx, "grades", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "c", runs[0].ID)

	n, err := j.Prune(ctx, base.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	runs, err = j.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}
