package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/brandlens/internal/storage"
)

// JobType is the queue type for asynchronous objective runs.
const JobType = "run_objective"

// JobStore abstracts the job queue operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

// ObjectiveRunner executes an objective and persists its evaluations.
// Implemented by Runner.
type ObjectiveRunner interface {
	Run(ctx context.Context, objectiveID string) ([]storage.Evaluation, error)
}

// Worker processes run_objective jobs from the SQLite job queue.
type Worker struct {
	store  JobStore
	runner ObjectiveRunner
	poll   time.Duration
	logger *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, runner ObjectiveRunner, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:  store,
		runner: runner,
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single run_objective job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

// RunPayload is the JSON payload carried by run_objective jobs.
type RunPayload struct {
	ObjectiveID string `json:"objective_id"`
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload RunPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if payload.ObjectiveID == "" {
		return fmt.Errorf("payload missing objective_id")
	}

	evals, err := w.runner.Run(ctx, payload.ObjectiveID)
	if err != nil {
		return fmt.Errorf("running objective %s: %w", payload.ObjectiveID, err)
	}

	w.logger.Info("objective job processed",
		"job_id", job.ID,
		"objective_id", payload.ObjectiveID,
		"evaluations", len(evals),
	)
	return nil
}
