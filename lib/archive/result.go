// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/parc/lib/digest"
	"github.com/bureau-foundation/parc/lib/encoder"
)

// Verdict is the batch-level outcome.
type Verdict int

const (
	AllSucceeded Verdict = iota + 1
	PartialSuccess
	AllFailed
)

// String returns the verdict's name.
func (v Verdict) String() string {
	switch v {
	case AllSucceeded:
		return "all_succeeded"
	case PartialSuccess:
		return "partial_success"
	case AllFailed:
		return "all_failed"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Outcome is the final state of one job.
type Outcome struct {
	Index      int
	Name       string
	State      State
	InputSize  int64
	OutputSize int64
	Method     encoder.Method
	Digest     digest.Digest
	StartedAt  time.Time
	FinishedAt time.Time

	// Err is set when State is StateFailed.
	Err *JobError
}

// ExecutionResult is the aggregated outcome of one batch. Outcomes
// are ordered by original index, whatever order the jobs finished in.
type ExecutionResult struct {
	// BatchID identifies the batch in logs.
	BatchID uuid.UUID

	Outcomes []Outcome
	Verdict  Verdict

	// Threads is the number of workers that ran. It is 1 when the
	// batch took the serial path.
	Threads int

	// Entries and PayloadSize describe the written archive. Entries
	// is nil when no archive was produced.
	Entries     []Entry
	PayloadSize int64

	// jobs holds the finished jobs in index order until the
	// coordinator has assembled and released them.
	jobs []*Job
}

// Succeeded returns the outcomes of completed jobs.
func (r *ExecutionResult) Succeeded() []Outcome {
	return r.filter(StateCompleted)
}

// Failed returns the outcomes of failed jobs.
func (r *ExecutionResult) Failed() []Outcome {
	return r.filter(StateFailed)
}

func (r *ExecutionResult) filter(state State) []Outcome {
	var outcomes []Outcome
	for _, outcome := range r.Outcomes {
		if outcome.State == state {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

// newExecutionResult orders finished jobs by original index and
// derives the verdict.
func newExecutionResult(batchID uuid.UUID, jobs []*Job, threads int) *ExecutionResult {
	ordered := slices.Clone(jobs)
	slices.SortFunc(ordered, func(a, b *Job) int { return a.Index() - b.Index() })

	result := &ExecutionResult{
		BatchID:  batchID,
		Outcomes: make([]Outcome, len(ordered)),
		Threads:  threads,
		jobs:     ordered,
	}
	completed := 0
	for i, job := range ordered {
		if !job.state.Terminal() {
			panic(fmt.Sprintf("archive: job %d finished in state %s", job.Index(), job.state))
		}
		if job.state == StateCompleted {
			completed++
		}
		result.Outcomes[i] = Outcome{
			Index:      job.Index(),
			Name:       job.descriptor.Name,
			State:      job.state,
			InputSize:  job.bytesRead,
			OutputSize: int64(len(job.block.Data)),
			Method:     job.block.Method,
			Digest:     job.digest,
			StartedAt:  job.startedAt,
			FinishedAt: job.finishedAt,
			Err:        job.err,
		}
	}
	switch completed {
	case len(ordered):
		result.Verdict = AllSucceeded
	case 0:
		result.Verdict = AllFailed
	default:
		result.Verdict = PartialSuccess
	}
	return result
}

// completedJobs returns the completed jobs in index order.
func (r *ExecutionResult) completedJobs() []*Job {
	var completed []*Job
	for _, job := range r.jobs {
		if job.state == StateCompleted {
			completed = append(completed, job)
		}
	}
	return completed
}

// release drops all compressed blocks.
func (r *ExecutionResult) release() {
	for _, job := range r.jobs {
		job.release()
	}
	r.jobs = nil
}
