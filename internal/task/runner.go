// Package task runs background jobs on a small worker pool: project
// exports and webhook deliveries. Jobs are queued in memory only; a
// restart drops whatever was still waiting.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Job is a unit of background work.
type Job interface {
	// ID returns the job's unique identifier.
	ID() uuid.UUID

	// Type returns the job type identifier used in logs.
	Type() string

	// Execute runs the job.
	Execute(ctx context.Context) error
}

// RunnerConfig sizes the worker pool.
type RunnerConfig struct {
	// WorkerCount determines how many jobs run concurrently.
	WorkerCount int

	// QueueSize is the buffer of the in-memory job queue; Submit fails
	// once it is full.
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// Runner manages background job processing.
type Runner struct {
	jobChan    chan Job
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
}

// NewRunner creates a Runner; call Start before submitting.
func NewRunner(config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultRunnerConfig().WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		jobChan:    make(chan Job, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "job_runner")),
	}
}

// Submit queues a job. It fails when the queue is full rather than
// blocking the request path.
func (r *Runner) Submit(job Job) error {
	select {
	case r.jobChan <- job:
		return nil
	default:
		return fmt.Errorf("job queue is full, try again later")
	}
}

// Start launches the worker pool.
func (r *Runner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Stop cancels running jobs and waits for the workers to exit. Queued
// jobs that never started are dropped.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", slog.Int("worker_id", id))
	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return
		case job, ok := <-r.jobChan:
			if !ok {
				return
			}
			r.processJob(job, id)
		}
	}
}

func (r *Runner) processJob(job Job, workerID int) {
	logger := r.logger.With(
		slog.String("job_id", job.ID().String()),
		slog.String("job_type", job.Type()),
		slog.Int("worker_id", workerID),
	)

	logger.Info("processing job")
	if err := job.Execute(r.ctx); err != nil {
		logger.Error("job execution failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("job completed")
}
