// Package jobs implements the asynchronous runner behind the search API:
// submit a task, receive a job id, poll for the outcome. Replaces an external
// task-queue broker with an in-process worker pool, which is all the
// job-id/poll contract needs.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Calebe94/usgs-earthquake/internal/observability"
)

// State is the observable lifecycle of a job.
type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Task is one unit of asynchronous work.
type Task func(ctx context.Context) (any, error)

// Job is a point-in-time snapshot returned by Poll.
type Job struct {
	ID          string
	State       State
	Result      any
	Err         error
	SubmittedAt time.Time
	FinishedAt  time.Time
}

// ErrQueueFull means the runner's bounded queue has no room; callers should
// surface back-pressure rather than block the submitter.
var ErrQueueFull = errors.New("job queue full")

type record struct {
	job  Job
	task Task
}

// Runner executes submitted tasks on a fixed worker pool and retains
// finished jobs for a configurable period so they can be polled.
type Runner struct {
	queue     chan *record
	retention time.Duration
	workers   int
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu   sync.Mutex
	jobs map[string]*record

	wg sync.WaitGroup
}

// NewRunner creates a Runner. Pass a fake clock in tests to drive retention.
func NewRunner(workers, queueSize int, retention time.Duration, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Runner{
		queue:     make(chan *record, queueSize),
		retention: retention,
		workers:   workers,
		clock:     clk,
		logger:    logger,
		metrics:   metrics,
		jobs:      make(map[string]*record),
	}
}

// Start launches the worker pool and the retention janitor. Workers stop
// after their current task once ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.wg.Add(1)
	go r.janitor(ctx)
	r.logger.Info("job runner started", "workers", r.workers, "retention", r.retention)
}

// Wait blocks until all workers have exited after Start's context was
// cancelled.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Submit enqueues a task and returns its job id, or ErrQueueFull.
func (r *Runner) Submit(task Task) (string, error) {
	rec := &record{
		job: Job{
			ID:          uuid.NewString(),
			State:       StatePending,
			SubmittedAt: r.clock.Now(),
		},
		task: task,
	}

	r.mu.Lock()
	r.jobs[rec.job.ID] = rec
	r.mu.Unlock()

	select {
	case r.queue <- rec:
	default:
		r.mu.Lock()
		delete(r.jobs, rec.job.ID)
		r.mu.Unlock()
		return "", ErrQueueFull
	}

	r.metrics.JobsSubmitted.Inc()
	return rec.job.ID, nil
}

// Poll returns the job snapshot, or false for an unknown or expired id.
func (r *Runner) Poll(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return rec.job, true
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-r.queue:
			r.execute(ctx, rec)
		}
	}
}

func (r *Runner) execute(ctx context.Context, rec *record) {
	r.metrics.JobsRunning.Inc()
	defer r.metrics.JobsRunning.Dec()

	start := r.clock.Now()
	result, err := rec.task(ctx)
	elapsed := r.clock.Since(start)
	r.metrics.JobDuration.Observe(elapsed.Seconds())

	r.mu.Lock()
	rec.job.FinishedAt = r.clock.Now()
	if err != nil {
		rec.job.State = StateFailed
		rec.job.Err = err
	} else {
		rec.job.State = StateDone
		rec.job.Result = result
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("job failed", "job_id", rec.job.ID, "duration", elapsed, "error", err)
		return
	}
	r.logger.Debug("job done", "job_id", rec.job.ID, "duration", elapsed)
}

// janitor evicts finished jobs older than the retention period.
func (r *Runner) janitor(ctx context.Context) {
	defer r.wg.Done()

	interval := r.retention / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.evictExpired()
		}
	}
}

func (r *Runner) evictExpired() {
	cutoff := r.clock.Now().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.jobs {
		if rec.job.State != StatePending && rec.job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}
