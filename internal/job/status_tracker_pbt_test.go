package job

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Counter invariants must hold for any interleaving of successes and
// failures against any task total.
func TestStatusCounterProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("completed tasks never exceed total and always equal success+fail", prop.ForAll(
		func(total int, outcomes []bool) bool {
			tracker := NewStatusTracker(time.Hour)
			jobID := tracker.StartJob(total)

			for _, success := range outcomes {
				if success {
					tracker.RecordSuccess(jobID)
				} else {
					tracker.RecordFailure(jobID)
				}
			}

			status := tracker.Get(jobID)
			if status.CompletedTasks > total {
				return false
			}
			return status.SuccessCount+status.FailCount == status.CompletedTasks
		},
		gen.IntRange(1, 50),
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("terminal state latches regardless of later transitions", prop.ForAll(
		func(failFirst bool) bool {
			tracker := NewStatusTracker(time.Hour)
			jobID := tracker.StartJob(1)

			if failFirst {
				tracker.MarkFailed(jobID, "boom")
			} else {
				tracker.MarkCompleted(jobID)
			}
			tracker.MarkCompleted(jobID)
			tracker.MarkFailed(jobID, "later")

			status := tracker.Get(jobID)
			return status.Completed && status.Error == failFirst
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}
