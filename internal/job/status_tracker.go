package job

import (
	"sync"
	"time"

	"github.com/figure-tracker/internal/logging"
	"github.com/google/uuid"
)

// Status is the lifecycle snapshot of one batch sync job.
// Counters only grow; Completed and the end timestamp are set exactly once.
type Status struct {
	JobID          string     `json:"jobId"`
	TotalTasks     int        `json:"totalTasks"`
	CompletedTasks int        `json:"completedTasks"`
	SuccessCount   int        `json:"successCount"`
	FailCount      int        `json:"failCount"`
	Completed      bool       `json:"completed"`
	Error          bool       `json:"error"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
}

// InProgress reports whether the job is still running
func (s *Status) InProgress() bool {
	return !s.Completed
}

// StatusTracker is an in-memory registry of batch sync jobs. Statuses live
// only for the process lifetime; a restart forgets running jobs, which is
// acceptable because the sync itself is idempotent and can be re-issued.
type StatusTracker struct {
	mu        sync.RWMutex
	jobs      map[string]*Status
	retention time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
	logger    *logging.Logger
}

// NewStatusTracker creates a tracker that keeps finished jobs for retention
// before sweeping them
func NewStatusTracker(retention time.Duration) *StatusTracker {
	return &StatusTracker{
		jobs:      make(map[string]*Status),
		retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		logger:    logging.GetLogger().WithField("component", "status_tracker"),
	}
}

// StartJob registers a new job with the given task count and returns its id
func (t *StatusTracker) StartJob(totalTasks int) string {
	jobID := uuid.New().String()

	t.mu.Lock()
	t.jobs[jobID] = &Status{
		JobID:      jobID,
		TotalTasks: totalTasks,
		StartTime:  time.Now(),
	}
	t.mu.Unlock()

	return jobID
}

// SetTotal fills in the task count for a job that was started before the
// count was known. Ignored once the job has completed.
func (t *StatusTracker) SetTotal(jobID string, totalTasks int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.jobs[jobID]
	if !ok || status.Completed {
		return
	}
	status.TotalTasks = totalTasks
}

// Get returns a snapshot of a job status, or nil if unknown.
// The returned value is a copy; mutating it does not affect the tracker.
func (t *StatusTracker) Get(jobID string) *Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status, ok := t.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *status
	return &snapshot
}

// RecordSuccess counts one successfully completed task
func (t *StatusTracker) RecordSuccess(jobID string) {
	t.record(jobID, true)
}

// RecordFailure counts one failed task
func (t *StatusTracker) RecordFailure(jobID string) {
	t.record(jobID, false)
}

func (t *StatusTracker) record(jobID string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.jobs[jobID]
	if !ok || status.Completed {
		return
	}
	// TotalTasks of zero means the count was not known at start time
	if status.TotalTasks > 0 && status.CompletedTasks >= status.TotalTasks {
		return
	}

	status.CompletedTasks++
	if success {
		status.SuccessCount++
	} else {
		status.FailCount++
	}
}

// MarkCompleted latches the job into its terminal success state.
// Later calls to MarkCompleted or MarkFailed are ignored.
func (t *StatusTracker) MarkCompleted(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.jobs[jobID]
	if !ok || status.Completed {
		return
	}

	now := time.Now()
	status.Completed = true
	status.EndTime = &now
}

// MarkFailed latches the job into its terminal error state with a message.
// Later calls to MarkCompleted or MarkFailed are ignored.
func (t *StatusTracker) MarkFailed(jobID string, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.jobs[jobID]
	if !ok || status.Completed {
		return
	}

	now := time.Now()
	status.Completed = true
	status.Error = true
	status.ErrorMessage = message
	status.EndTime = &now
}

// List returns snapshots of all tracked jobs, newest first
func (t *StatusTracker) List() []*Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	statuses := make([]*Status, 0, len(t.jobs))
	for _, status := range t.jobs {
		snapshot := *status
		statuses = append(statuses, &snapshot)
	}
	return statuses
}

// StartSweeper launches the background loop that drops finished jobs older
// than the retention window. Call Stop to shut it down.
func (t *StatusTracker) StartSweeper(interval time.Duration) {
	go func() {
		defer close(t.doneCh)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				t.sweep()
			}
		}
	}()
}

// Stop shuts down the sweeper and waits for it to exit
func (t *StatusTracker) Stop() {
	close(t.stopCh)
	<-t.doneCh
}

func (t *StatusTracker) sweep() {
	cutoff := time.Now().Add(-t.retention)

	t.mu.Lock()
	defer t.mu.Unlock()

	swept := 0
	for jobID, status := range t.jobs {
		if status.Completed && status.EndTime != nil && status.EndTime.Before(cutoff) {
			delete(t.jobs, jobID)
			swept++
		}
	}
	if swept > 0 {
		t.logger.WithField("count", swept).Debug("Swept expired job statuses")
	}
}
