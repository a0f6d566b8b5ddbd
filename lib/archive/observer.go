// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"time"

	"github.com/bureau-foundation/parc/lib/encoder"
)

// JobEvent describes one finished job.
type JobEvent struct {
	Index      int
	Name       string
	InputSize  int64
	OutputSize int64
	Method     encoder.Method
	Duration   time.Duration

	// Err is set for failed jobs.
	Err *JobError

	// Finished counts jobs finished so far in the batch, this one
	// included. Total is the batch size.
	Finished int
	Total    int
}

// Observer receives progress events. Calls are made from the
// goroutine that called CompressAll (or WorkerPool.Run), one at a
// time, in completion order. Implementations should return quickly:
// while an observer call runs, finished jobs queue up behind it.
type Observer interface {
	JobCompleted(event JobEvent)
	JobFailed(event JobEvent)
}

// ObserverFuncs adapts a pair of functions to Observer. Nil fields
// are skipped.
type ObserverFuncs struct {
	Completed func(JobEvent)
	Failed    func(JobEvent)
}

// JobCompleted calls f.Completed if set.
func (f ObserverFuncs) JobCompleted(event JobEvent) {
	if f.Completed != nil {
		f.Completed(event)
	}
}

// JobFailed calls f.Failed if set.
func (f ObserverFuncs) JobFailed(event JobEvent) {
	if f.Failed != nil {
		f.Failed(event)
	}
}

// jobEvent snapshots a job for an observer. The error is copied so
// that an observer cannot change the failure recorded in the result.
func jobEvent(job *Job, finished, total int) JobEvent {
	event := JobEvent{
		Index:      job.descriptor.Index,
		Name:       job.descriptor.Name,
		InputSize:  job.bytesRead,
		OutputSize: int64(len(job.block.Data)),
		Method:     job.block.Method,
		Duration:   job.Duration(),
		Finished:   finished,
		Total:      total,
	}
	if job.err != nil {
		errCopy := *job.err
		event.Err = &errCopy
	}
	return event
}
