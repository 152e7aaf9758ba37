package jobqueue

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TaskFunc executes the async pipeline for a run (spec.md §4.8's VCF
// ingest pipeline) and returns the output path on success.
type TaskFunc func(ctx context.Context, run *Run) (outputPath string, err error)

// WorkerPoolOptions configures a WorkerPool.
type WorkerPoolOptions struct {
	// Concurrency is the number of workers consuming the broker
	// concurrently, each with prefetch=1 (spec.md §4.9: "async VCF work
	// dispatched to a separate worker pool, prefetch multiplier 1" — one
	// in-flight run per worker, not a bigger prefetch buffer).
	Concurrency int
	// SoftTimeout cancels a running task's context, giving it a chance
	// to abort gracefully and mark the run FAILED.
	SoftTimeout time.Duration
	// HardTimeout abandons a task entirely: the worker stops waiting on
	// it and the run is requeued via Nack for another worker to pick
	// up. The previous goroutine is left to exit on its own; pipeline
	// work must be idempotent (spec.md §4.9) to tolerate this.
	HardTimeout time.Duration
}

// DefaultWorkerPoolOptions returns sane single-node defaults.
func DefaultWorkerPoolOptions() WorkerPoolOptions {
	return WorkerPoolOptions{Concurrency: 4, SoftTimeout: 10 * time.Minute, HardTimeout: 20 * time.Minute}
}

// WorkerPool drains a Broker with Concurrency workers, each running at
// most one task at a time (spec.md §4.9).
type WorkerPool struct {
	broker Broker
	task   TaskFunc
	opts   WorkerPoolOptions
	logger *zap.SugaredLogger
}

// NewWorkerPool returns a WorkerPool. logger may be nil, in which case a
// no-op logger is used.
func NewWorkerPool(broker Broker, task TaskFunc, opts WorkerPoolOptions, logger *zap.SugaredLogger) *WorkerPool {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &WorkerPool{broker: broker, task: task, opts: opts, logger: logger}
}

// Run starts Concurrency worker goroutines and blocks until ctx is
// cancelled or the broker closes.
func (p *WorkerPool) Run(ctx context.Context) {
	concurrency := p.opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	done := make(chan struct{})
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			p.loop(ctx, workerID)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < concurrency; i++ {
		<-done
	}
}

func (p *WorkerPool) loop(ctx context.Context, workerID int) {
	for {
		delivery, err := p.broker.Consume(ctx)
		if err != nil {
			return
		}
		p.process(ctx, delivery, workerID)
	}
}

// process runs a single delivery to completion, a soft-timeout abort, or
// a hard-timeout abandonment.
func (p *WorkerPool) process(ctx context.Context, delivery Delivery, workerID int) {
	run := delivery.Run
	if !run.Start() {
		// already RUNNING/terminal (e.g. a duplicate delivery) — ack and
		// move on rather than re-running a completed task.
		delivery.Ack()
		return
	}

	taskCtx, cancelSoft := context.WithTimeout(ctx, p.effectiveSoft())
	defer cancelSoft()

	type result struct {
		outputPath string
		err        error
	}
	resultCh := make(chan result, 1)
	go func() {
		outputPath, err := p.task(taskCtx, run)
		resultCh <- result{outputPath, err}
	}()

	hardTimer := time.NewTimer(p.effectiveHard())
	defer hardTimer.Stop()

	select {
	case r := <-resultCh:
		now := time.Now()
		if r.err != nil {
			run.Fail(r.err.Error(), now)
			p.logger.Warnw("run failed", "run_id", run.RunID, "worker", workerID, "error", r.err)
		} else {
			run.Complete(r.outputPath, now)
			p.logger.Infow("run completed", "run_id", run.RunID, "worker", workerID)
		}
		delivery.Ack()
	case <-hardTimer.C:
		p.logger.Errorw("run hit hard time limit, abandoning", "run_id", run.RunID, "worker", workerID)
		run.Requeue()
		delivery.Nack()
	}
}

func (p *WorkerPool) effectiveSoft() time.Duration {
	if p.opts.SoftTimeout <= 0 {
		return DefaultWorkerPoolOptions().SoftTimeout
	}
	return p.opts.SoftTimeout
}

func (p *WorkerPool) effectiveHard() time.Duration {
	if p.opts.HardTimeout <= 0 {
		return DefaultWorkerPoolOptions().HardTimeout
	}
	return p.opts.HardTimeout
}
