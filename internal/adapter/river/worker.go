package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// HookWorker processes post-transition hook jobs from the River queue.
// For now it logs the transition; future versions will notify vendors and
// invalidate the search index for listings entering or leaving publication.
type HookWorker struct {
	river.WorkerDefaults[HookJobArgs]
}

// Work processes a single hook job.
func (w *HookWorker) Work(ctx context.Context, job *river.Job[HookJobArgs]) error {
	slog.InfoContext(ctx, "running post-transition hooks",
		"action", job.Args.Action,
		"listing_id", job.Args.ListingID,
		"from_state", job.Args.FromState,
		"to_state", job.Args.ToState,
		"published", job.Args.IsPublished,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
