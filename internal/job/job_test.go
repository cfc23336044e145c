package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure_eraser/internal/eraserr"
)

func testConfig() Config {
	return Config{
		Operation: "directory",
		Targets:   []string{"/tmp/victim"},
		Method:    "dod7",
		Passes:    7,
		Verify:    true,
	}
}

func newTestJob(t *testing.T) *Job {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job_test.json")
	return New("test-job", testConfig(), path, nil)
}

func TestJobLifecycle(t *testing.T) {
	j := newTestJob(t)
	assert.Equal(t, StatusPending, j.Status)

	require.NoError(t, j.Start())
	assert.Equal(t, StatusRunning, j.Status)
	assert.NotEmpty(t, j.Progress.StartTime)

	require.NoError(t, j.Complete(true))
	assert.Equal(t, StatusCompleted, j.Status)
	assert.NotEmpty(t, j.Progress.EndTime)
}

func TestJobStartIllegalStates(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())
	require.NoError(t, j.Complete(true))

	err := j.Start()
	assert.ErrorIs(t, err, eraserr.ErrJobStateViolation)
}

func TestJobPauseIsSilentNoOpWhenNotRunning(t *testing.T) {
	j := newTestJob(t)

	require.NoError(t, j.Pause())
	assert.Equal(t, StatusPending, j.Status, "pause before start changes nothing")

	require.NoError(t, j.Start())
	require.NoError(t, j.Complete(true))
	require.NoError(t, j.Pause())
	assert.Equal(t, StatusCompleted, j.Status)
}

func TestJobPausedDurationAccumulates(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())

	require.NoError(t, j.Pause())
	assert.Equal(t, StatusPaused, j.Status)
	assert.NotEmpty(t, j.Progress.PauseTime)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, j.Start())

	assert.Equal(t, StatusRunning, j.Status)
	assert.Empty(t, j.Progress.PauseTime, "cleared on resume")
	assert.GreaterOrEqual(t, j.Progress.PausedDuration, 0.05)
	assert.Less(t, j.Progress.PausedDuration, 5.0)
}

func TestJobCancel(t *testing.T) {
	j := newTestJob(t)

	err := j.Cancel()
	assert.ErrorIs(t, err, eraserr.ErrJobStateViolation, "cannot cancel pending")

	require.NoError(t, j.Start())
	require.NoError(t, j.Pause())
	require.NoError(t, j.Cancel())
	assert.Equal(t, StatusCanceled, j.Status)
}

func TestJobCompleteFailure(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())
	require.NoError(t, j.Complete(false))
	assert.Equal(t, StatusFailed, j.Status)
}

func TestJobProgressAndETA(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())

	total := 10
	j.UpdateProgress(ProgressUpdate{TotalItems: &total})

	time.Sleep(20 * time.Millisecond)
	processed := 5
	j.UpdateProgress(ProgressUpdate{ProcessedItems: &processed})

	assert.Equal(t, 10, j.Progress.TotalItems)
	assert.Equal(t, 5, j.Progress.ProcessedItems)
	assert.Positive(t, j.Progress.EstimatedTimeRemaining)
}

func TestJobItemIdempotence(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())

	assert.False(t, j.IsItemCompleted("/tmp/a"))
	j.AddSuccess("/tmp/a")
	j.AddSuccess("/tmp/a")
	assert.True(t, j.IsItemCompleted("/tmp/a"))
	assert.Equal(t, 2, j.Results.SuccessCount)
	assert.Len(t, j.Checkpoint.CompletedItems, 1, "set only grows unique items")

	j.AddError("/tmp/b", assert.AnError)
	assert.Equal(t, 1, j.Results.ErrorCount)
	require.Len(t, j.Results.Errors, 1)
	assert.Equal(t, "/tmp/b", j.Results.Errors[0].Item)
}

func TestJobCheckpointRoundTrip(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())
	j.AddSuccess("/tmp/a")
	j.AddSuccess("/tmp/b")
	j.AddSkipped("/tmp/skip")
	total, processed := 4, 2
	j.UpdateProgress(ProgressUpdate{TotalItems: &total, ProcessedItems: &processed})
	require.NoError(t, j.Pause())

	loaded, err := LoadFromCheckpoint(j.Path(), nil)
	require.NoError(t, err)

	assert.Equal(t, j.ID, loaded.ID)
	assert.Equal(t, j.Status, loaded.Status)
	assert.Equal(t, j.Config, loaded.Config)
	assert.Equal(t, j.Progress, loaded.Progress)
	assert.Equal(t, j.Checkpoint.CompletedItems, loaded.Checkpoint.CompletedItems)
	assert.Equal(t, j.Checkpoint.SkippedItems, loaded.Checkpoint.SkippedItems)
	assert.True(t, loaded.IsItemCompleted("/tmp/a"))
	assert.True(t, loaded.IsItemCompleted("/tmp/b"))
	assert.False(t, loaded.IsItemCompleted("/tmp/c"))
}

func TestJobResumeAfterLoad(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())
	require.NoError(t, j.Pause())

	loaded, err := LoadFromCheckpoint(j.Path(), nil)
	require.NoError(t, err)
	require.NoError(t, loaded.Start())
	assert.Equal(t, StatusRunning, loaded.Status)
}

func TestJobCheckpointBuckets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_bucket.json")
	j := New("bucket", testConfig(), path, nil)
	require.NoError(t, j.Start())

	total := 100
	j.UpdateProgress(ProgressUpdate{TotalItems: &total})

	// Crossing a 5% boundary persists; re-reading must see it.
	five := 5
	j.UpdateProgress(ProgressUpdate{ProcessedItems: &five})
	loaded, err := LoadFromCheckpoint(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Progress.ProcessedItems)

	// Within the same bucket nothing new is written.
	info1, err := os.Stat(path)
	require.NoError(t, err)
	six := 6
	j.UpdateProgress(ProgressUpdate{ProcessedItems: &six})
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestLoadFromCheckpointMissing(t *testing.T) {
	_, err := LoadFromCheckpoint(filepath.Join(t.TempDir(), "job_none.json"), nil)
	assert.ErrorIs(t, err, eraserr.ErrTargetNotFound)
}

func TestLoadFromCheckpointCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o600))
	_, err := LoadFromCheckpoint(path, nil)
	assert.Error(t, err)
}
