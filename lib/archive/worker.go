// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"

	"github.com/bureau-foundation/parc/lib/clock"
	"github.com/bureau-foundation/parc/lib/digest"
	"github.com/bureau-foundation/parc/lib/encoder"
)

// worker drains a JobQueue with one encoder. A worker never stops
// early: every job it takes ends Completed or Failed, and a failure
// only affects that job.
type worker struct {
	id         int
	encoder    encoder.Encoder
	queue      *JobQueue
	clock      clock.Clock
	maxJobSize int64
	logger     *slog.Logger
}

// run takes jobs until the queue is empty, handing each finished job
// to done. On the parallel path done sends to the pool's result
// channel; on the serial path it records the job directly.
func (w *worker) run(ctx context.Context, done func(*Job)) {
	for {
		job, ok := w.queue.TryTake()
		if !ok {
			return
		}
		w.process(ctx, job)
		done(job)
	}
}

// process runs one job to a terminal state.
func (w *worker) process(ctx context.Context, job *Job) {
	job.start(w.clock.Now())
	descriptor := job.descriptor

	phase := SourceReadError
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		kind := phase
		if recovered == bytes.ErrTooLarge {
			kind = OutOfMemory
		}
		w.logger.Error("job panicked",
			"worker", w.id,
			"index", descriptor.Index,
			"name", descriptor.Name,
			"panic", recovered,
		)
		job.fail(w.clock.Now(), kind, fmt.Errorf("panic: %v", recovered))
	}()

	if err := ctx.Err(); err != nil {
		job.fail(w.clock.Now(), Cancelled, err)
		return
	}
	if w.maxJobSize > 0 && descriptor.Size > w.maxJobSize {
		job.fail(w.clock.Now(), OutOfMemory, fmt.Errorf("%w: declared %d bytes, limit %d",
			ErrJobTooLarge, descriptor.Size, w.maxJobSize))
		return
	}

	reader, err := descriptor.Source.Open(ctx)
	if err != nil {
		job.fail(w.clock.Now(), w.readFailureKind(ctx), fmt.Errorf("opening source: %w", err))
		return
	}
	defer reader.Close()

	input := &trackingReader{
		ctx:    ctx,
		reader: reader,
		hasher: digest.NewEntryHasher(),
		limit:  w.maxJobSize,
	}
	phase = EncoderError
	block, err := w.encoder.Encode(input)
	switch {
	case input.overLimit:
		job.fail(w.clock.Now(), OutOfMemory, fmt.Errorf("%w: read more than %d bytes",
			ErrJobTooLarge, w.maxJobSize))
		return
	case input.err != nil:
		job.fail(w.clock.Now(), w.readFailureKind(ctx), fmt.Errorf("reading source: %w", input.err))
		return
	case errors.Is(err, encoder.ErrTooLarge):
		job.fail(w.clock.Now(), OutOfMemory, err)
		return
	case err != nil:
		job.fail(w.clock.Now(), EncoderError, err)
		return
	}

	if descriptor.Size != SizeUnknown && input.count != descriptor.Size {
		job.fail(w.clock.Now(), SourceReadError, fmt.Errorf("%w: read %d bytes, declared %d",
			ErrSizeMismatch, input.count, descriptor.Size))
		return
	}

	job.complete(w.clock.Now(), block, input.count, digest.FromSum(input.hasher))
	w.logger.Debug("job completed",
		"worker", w.id,
		"index", descriptor.Index,
		"name", descriptor.Name,
		"input_bytes", input.count,
		"output_bytes", len(block.Data),
		"method", block.Method,
	)
}

func (w *worker) readFailureKind(ctx context.Context) ErrorKind {
	if ctx.Err() != nil {
		return Cancelled
	}
	return SourceReadError
}

// trackingReader sits between a source and an encoder. It counts and
// hashes the bytes read, remembers the source's first error so the
// worker can tell read failures from codec failures, stops reading
// once the context is cancelled, and enforces the per-job size limit.
type trackingReader struct {
	ctx    context.Context
	reader io.Reader
	hasher hash.Hash
	limit  int64

	count     int64
	err       error
	overLimit bool
}

func (r *trackingReader) Read(buffer []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if err := r.ctx.Err(); err != nil {
		r.err = err
		return 0, err
	}
	n, err := r.readSource(buffer)
	if n > 0 {
		r.hasher.Write(buffer[:n])
		r.count += int64(n)
		if r.limit > 0 && r.count > r.limit {
			r.overLimit = true
			r.err = ErrJobTooLarge
			return n, r.err
		}
	}
	if err != nil && err != io.EOF {
		r.err = err
	}
	return n, err
}

// readSource calls the source's Read, turning a panic into the
// source's error so it is not mistaken for a codec failure.
func (r *trackingReader) readSource(buffer []byte) (n int, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			n, err = 0, fmt.Errorf("panic: %v", recovered)
		}
	}()
	return r.reader.Read(buffer)
}
