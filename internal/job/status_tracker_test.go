package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartJobAndGet(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)

	jobID := tracker.StartJob(5)
	require.NotEmpty(t, jobID)

	status := tracker.Get(jobID)
	require.NotNil(t, status)
	assert.Equal(t, jobID, status.JobID)
	assert.Equal(t, 5, status.TotalTasks)
	assert.Zero(t, status.CompletedTasks)
	assert.True(t, status.InProgress())
	assert.Nil(t, status.EndTime)
}

func TestGet_UnknownJob(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)
	assert.Nil(t, tracker.Get("no-such-job"))
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)
	jobID := tracker.StartJob(2)

	snapshot := tracker.Get(jobID)
	snapshot.SuccessCount = 99

	assert.Zero(t, tracker.Get(jobID).SuccessCount)
}

func TestRecordProgress(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)
	jobID := tracker.StartJob(3)

	tracker.RecordSuccess(jobID)
	tracker.RecordSuccess(jobID)
	tracker.RecordFailure(jobID)

	status := tracker.Get(jobID)
	assert.Equal(t, 3, status.CompletedTasks)
	assert.Equal(t, 2, status.SuccessCount)
	assert.Equal(t, 1, status.FailCount)
}

func TestRecord_IgnoredAfterTotal(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)
	jobID := tracker.StartJob(1)

	tracker.RecordSuccess(jobID)
	tracker.RecordSuccess(jobID)
	tracker.RecordFailure(jobID)

	status := tracker.Get(jobID)
	assert.Equal(t, 1, status.CompletedTasks)
	assert.Equal(t, 1, status.SuccessCount)
	assert.Zero(t, status.FailCount)
}

func TestRecord_UnknownTotalAccepted(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)
	jobID := tracker.StartJob(0)

	tracker.RecordSuccess(jobID)
	tracker.RecordFailure(jobID)

	status := tracker.Get(jobID)
	assert.Equal(t, 2, status.CompletedTasks)

	tracker.SetTotal(jobID, 2)
	assert.Equal(t, 2, tracker.Get(jobID).TotalTasks)
}

func TestMarkCompleted_LatchesOnce(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)
	jobID := tracker.StartJob(1)

	tracker.RecordSuccess(jobID)
	tracker.MarkCompleted(jobID)

	status := tracker.Get(jobID)
	require.True(t, status.Completed)
	require.NotNil(t, status.EndTime)
	firstEnd := *status.EndTime

	// Later terminal transitions are ignored
	tracker.MarkFailed(jobID, "too late")
	tracker.MarkCompleted(jobID)

	status = tracker.Get(jobID)
	assert.False(t, status.Error)
	assert.Empty(t, status.ErrorMessage)
	assert.Equal(t, firstEnd, *status.EndTime)
}

func TestMarkFailed(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)
	jobID := tracker.StartJob(4)

	tracker.MarkFailed(jobID, "roster fetch failed")

	status := tracker.Get(jobID)
	assert.True(t, status.Completed)
	assert.True(t, status.Error)
	assert.Equal(t, "roster fetch failed", status.ErrorMessage)

	// Progress after failure is ignored
	tracker.RecordSuccess(jobID)
	assert.Zero(t, tracker.Get(jobID).CompletedTasks)
}

func TestList(t *testing.T) {
	tracker := NewStatusTracker(time.Hour)
	a := tracker.StartJob(1)
	b := tracker.StartJob(2)

	statuses := tracker.List()
	require.Len(t, statuses, 2)

	seen := map[string]bool{}
	for _, s := range statuses {
		seen[s.JobID] = true
	}
	assert.True(t, seen[a])
	assert.True(t, seen[b])
}

func TestSweep_DropsExpiredCompletedJobs(t *testing.T) {
	tracker := NewStatusTracker(10 * time.Millisecond)

	expired := tracker.StartJob(1)
	tracker.MarkCompleted(expired)

	running := tracker.StartJob(1)

	time.Sleep(20 * time.Millisecond)
	tracker.sweep()

	assert.Nil(t, tracker.Get(expired))
	assert.NotNil(t, tracker.Get(running))
}

func TestSweeperLifecycle(t *testing.T) {
	tracker := NewStatusTracker(time.Millisecond)
	tracker.StartSweeper(5 * time.Millisecond)

	jobID := tracker.StartJob(1)
	tracker.MarkCompleted(jobID)

	require.Eventually(t, func() bool {
		return tracker.Get(jobID) == nil
	}, time.Second, 5*time.Millisecond)

	tracker.Stop()
}
