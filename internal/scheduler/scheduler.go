package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/oshokin/unipack/internal/logger"
)

// JobStatus is the lifecycle state of one format job.
type JobStatus string

const (
	// StatusPending marks a job not yet started.
	StatusPending JobStatus = "pending"
	// StatusSucceeded marks a job that produced its artifact.
	StatusSucceeded JobStatus = "succeeded"
	// StatusFailed marks a job whose build failed.
	StatusFailed JobStatus = "failed"
	// StatusSkipped marks a job never started because an earlier job
	// failed under the fail-fast policy.
	StatusSkipped JobStatus = "skipped"
)

// Job is one requested output unit: a name for reporting and the
// build-and-verify sequence to execute.
type Job struct {
	// Name identifies the job in results ("linux/deb").
	Name string
	// Run executes the job and returns the produced artifact path.
	Run func(ctx context.Context) (string, error)
}

// Options controls job execution.
type Options struct {
	// Parallel enables the bounded worker pool; when false, jobs run
	// strictly sequentially in input order (the deterministic
	// fallback path for reproducing failures).
	Parallel bool
	// MaxWorkers bounds pool size; values below one mean one worker.
	MaxWorkers int
	// FailFast skips jobs not yet started once any job has failed.
	// Jobs already running always finish.
	FailFast bool
}

// JobResult is the outcome of one job.
type JobResult struct {
	// Name identifies the job.
	Name string
	// Status is the final job state.
	Status JobStatus
	// Artifact is the produced artifact path on success.
	Artifact string
	// Err is the captured failure, nil otherwise.
	Err error
	// Duration is the job's execution time.
	Duration time.Duration
}

// Outcome aggregates per-job results. Results are always in input order
// regardless of completion order.
type Outcome struct {
	// Results holds one entry per submitted job, input-ordered.
	Results []JobResult
}

// Succeeded reports whether every job succeeded.
func (o *Outcome) Succeeded() bool {
	for _, result := range o.Results {
		if result.Status != StatusSucceeded {
			return false
		}
	}

	return true
}

// Err aggregates the failures of all failed jobs, nil when none failed.
func (o *Outcome) Err() error {
	var errs error

	for _, result := range o.Results {
		if result.Err != nil {
			errs = multierr.Append(errs, result.Err)
		}
	}

	return errs
}

// Run executes the jobs and aggregates their results. With parallelism
// disabled or a single job, execution is strictly sequential in input
// order. Otherwise jobs are submitted to a worker pool bounded by
// min(MaxWorkers, len(jobs)).
func Run(ctx context.Context, jobs []Job, opts Options) *Outcome {
	outcome := &Outcome{
		Results: make([]JobResult, len(jobs)),
	}

	for i, job := range jobs {
		outcome.Results[i] = JobResult{
			Name:   job.Name,
			Status: StatusPending,
		}
	}

	if !opts.Parallel || len(jobs) <= 1 {
		runSequential(ctx, jobs, opts, outcome)

		return outcome
	}

	runParallel(ctx, jobs, opts, outcome)

	return outcome
}

// runSequential executes jobs one by one in input order.
func runSequential(ctx context.Context, jobs []Job, opts Options, outcome *Outcome) {
	failed := false

	for i, job := range jobs {
		if failed && opts.FailFast {
			outcome.Results[i].Status = StatusSkipped

			continue
		}

		outcome.Results[i] = execute(ctx, job)

		if outcome.Results[i].Status == StatusFailed {
			failed = true
		}
	}
}

// runParallel submits jobs to a bounded worker pool. A failure never
// cancels running siblings; under fail-fast it only prevents jobs not
// yet started from being scheduled.
func runParallel(ctx context.Context, jobs []Job, opts Options, outcome *Outcome) {
	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	if workers > len(jobs) {
		workers = len(jobs)
	}

	var (
		wg     sync.WaitGroup
		failed atomic.Bool
		sem    = make(chan struct{}, workers)
	)

	for i, job := range jobs {
		wg.Add(1)

		go func(i int, job Job) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if opts.FailFast && failed.Load() {
				outcome.Results[i].Status = StatusSkipped

				return
			}

			outcome.Results[i] = execute(ctx, job)

			if outcome.Results[i].Status == StatusFailed {
				failed.Store(true)
			}
		}(i, job)
	}

	wg.Wait()
}

// execute runs one job and captures its result.
func execute(ctx context.Context, job Job) JobResult {
	logger.InfoKV(ctx, "Starting format job", "job", job.Name)

	started := time.Now()
	artifact, err := job.Run(ctx)
	duration := time.Since(started)

	result := JobResult{
		Name:     job.Name,
		Artifact: artifact,
		Duration: duration,
	}

	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		result.Artifact = ""

		logger.ErrorKV(ctx, "Format job failed", "job", job.Name, "error", err)

		return result
	}

	result.Status = StatusSucceeded

	logger.InfoKV(ctx, "Format job finished", "job", job.Name, "artifact", artifact, "duration", duration)

	return result
}
