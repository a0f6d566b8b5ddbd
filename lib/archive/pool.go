// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/parc/lib/clock"
	"github.com/bureau-foundation/parc/lib/encoder"
)

// PoolConfig configures a WorkerPool.
type PoolConfig struct {
	// Registry provides the codec. Required.
	Registry *encoder.Registry

	Method encoder.Method
	Level  int

	// Clock stamps job start and finish times. Defaults to the real
	// clock.
	Clock clock.Clock

	// Logger defaults to a logger that discards everything.
	Logger *slog.Logger

	Observer   Observer
	Prefetcher Prefetcher
	LookAhead  int
	MaxJobSize int64
}

// WorkerPool runs a batch of jobs on a bounded set of workers.
type WorkerPool struct {
	registry   *encoder.Registry
	method     encoder.Method
	level      int
	clock      clock.Clock
	logger     *slog.Logger
	observer   Observer
	prefetcher Prefetcher
	lookAhead  int
	maxJobSize int64
}

// NewWorkerPool returns a pool for config.
func NewWorkerPool(config PoolConfig) (*WorkerPool, error) {
	if config.Registry == nil {
		return nil, errors.New("archive: PoolConfig.Registry is required")
	}
	if config.MaxJobSize < 0 {
		return nil, configErrorf("max_job_size", nil, "must not be negative, got %d", config.MaxJobSize)
	}
	if config.LookAhead < 0 {
		return nil, configErrorf("look_ahead", nil, "must not be negative, got %d", config.LookAhead)
	}
	pool := &WorkerPool{
		registry:   config.Registry,
		method:     config.Method,
		level:      config.Level,
		clock:      config.Clock,
		logger:     config.Logger,
		observer:   config.Observer,
		prefetcher: config.Prefetcher,
		lookAhead:  config.LookAhead,
		maxJobSize: config.MaxJobSize,
	}
	if pool.clock == nil {
		pool.clock = clock.Real()
	}
	if pool.logger == nil {
		pool.logger = slog.New(slog.DiscardHandler)
	}
	return pool, nil
}

// Run compresses every descriptor and returns once all jobs are
// Completed or Failed. Outcomes in the result are ordered by original
// index. Run returns an error only for configuration problems, which
// are detected before any job starts; job failures are reported in
// the result.
//
// When only one worker would have work, Run processes the jobs on
// the calling goroutine and starts no workers.
func (p *WorkerPool) Run(ctx context.Context, descriptors []*Descriptor, threads int) (*ExecutionResult, error) {
	if err := validateDescriptors(descriptors); err != nil {
		return nil, err
	}
	workers, clamped, err := resolveThreads(threads, len(descriptors))
	if err != nil {
		return nil, err
	}
	if clamped {
		p.logger.Warn("thread count clamped", "requested", threads, "threads", MaxThreads)
	}

	encoders := make([]encoder.Encoder, workers)
	for i := range encoders {
		encoders[i], err = p.registry.NewEncoder(p.method, p.level)
		if err != nil {
			return nil, configErrorf("method", err, "cannot build encoder for %s level %d",
				p.registry.Name(p.method), p.level)
		}
	}

	jobs := make([]*Job, len(descriptors))
	queue := NewJobQueue(len(descriptors))
	for i, descriptor := range descriptors {
		jobs[i] = newJob(descriptor)
		if err := queue.Push(jobs[i]); err != nil {
			return nil, err
		}
	}
	queue.Close()

	batchID := uuid.New()
	logger := p.logger.With("batch", batchID.String())

	tracker := &progress{
		observer: p.observer,
		logger:   logger,
		total:    len(jobs),
	}
	if p.prefetcher != nil {
		horizon := p.lookAhead
		if horizon == 0 {
			horizon = 2 * workers
		}
		tracker.prefetch = startPrefetch(ctx, p.prefetcher, horizon, logger)
		defer tracker.prefetch.stop()
		tracker.prefetch.notify(0)
	}

	logger.Info("batch started",
		"jobs", len(jobs),
		"threads", workers,
		"method", p.registry.Name(p.method),
		"level", p.level,
	)
	newWorker := func(id int) *worker {
		return &worker{
			id:         id,
			encoder:    encoders[id],
			queue:      queue,
			clock:      p.clock,
			maxJobSize: p.maxJobSize,
			logger:     logger,
		}
	}
	if workers == 1 {
		newWorker(0).run(ctx, tracker.record)
	} else {
		runParallel(ctx, workers, newWorker, tracker)
	}

	result := newExecutionResult(batchID, jobs, workers)
	logger.Info("batch finished",
		"verdict", result.Verdict.String(),
		"completed", tracker.completed,
		"failed", tracker.failed,
	)
	return result, nil
}

// runParallel starts the workers and records their results on the
// calling goroutine until all of them have exited.
func runParallel(ctx context.Context, workers int, newWorker func(int) *worker, tracker *progress) {
	// Sized so that no worker ever blocks on send.
	results := make(chan *Job, tracker.total)

	var group errgroup.Group
	for id := range workers {
		w := newWorker(id)
		group.Go(func() error {
			w.run(ctx, func(job *Job) { results <- job })
			return nil
		})
	}
	go func() {
		group.Wait()
		close(results)
	}()

	for job := range results {
		tracker.record(job)
	}
}

// progress is the pool's bookkeeping for finished jobs. It is only
// used from the goroutine that called Run.
type progress struct {
	observer Observer
	prefetch *prefetchLoop
	logger   *slog.Logger
	total    int

	completed int
	failed    int
}

func (t *progress) record(job *Job) {
	if job.state == StateCompleted {
		t.completed++
	} else {
		t.failed++
		t.logger.Warn("job failed",
			"index", job.Index(),
			"name", job.descriptor.Name,
			"kind", job.err.Kind.String(),
			"error", job.err.Err,
		)
	}
	finished := t.completed + t.failed

	if t.observer != nil {
		event := jobEvent(job, finished, t.total)
		if job.state == StateCompleted {
			t.observer.JobCompleted(event)
		} else {
			t.observer.JobFailed(event)
		}
	}
	if t.prefetch != nil {
		t.prefetch.notify(finished)
	}
}
