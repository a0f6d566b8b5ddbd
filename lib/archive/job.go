// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/parc/lib/digest"
	"github.com/bureau-foundation/parc/lib/encoder"
)

// State is a job's position in its lifecycle.
type State int

const (
	StatePending State = iota
	StateAssigned
	StateRunning
	StateCompleted
	StateFailed
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAssigned:
		return "assigned"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job is the mutable run state of one descriptor.
//
// Before assignment only the queue touches a job, under its lock.
// After assignment only the owning worker touches it, until it hands
// the finished job back to the pool over a channel (or, on the serial
// path, by returning). Nothing else mutates a job once assigned.
type Job struct {
	descriptor *Descriptor
	state      State

	block      encoder.Block
	bytesRead  int64
	digest     digest.Digest
	err        *JobError
	startedAt  time.Time
	finishedAt time.Time
}

func newJob(descriptor *Descriptor) *Job {
	return &Job{descriptor: descriptor, state: StatePending}
}

// Descriptor returns the input this job compresses.
func (j *Job) Descriptor() *Descriptor { return j.descriptor }

// Index returns the descriptor's original index.
func (j *Job) Index() int { return j.descriptor.Index }

// State returns the job's current state.
func (j *Job) State() State { return j.state }

// Block returns the compressed block of a completed job.
func (j *Job) Block() encoder.Block { return j.block }

// BytesRead returns the number of uncompressed bytes read.
func (j *Job) BytesRead() int64 { return j.bytesRead }

// Digest returns the entry digest of the uncompressed bytes.
func (j *Job) Digest() digest.Digest { return j.digest }

// Err returns the failure of a failed job, or nil.
func (j *Job) Err() *JobError { return j.err }

// Duration returns how long the job ran.
func (j *Job) Duration() time.Duration { return j.finishedAt.Sub(j.startedAt) }

func (j *Job) transition(from, to State) {
	if j.state != from {
		panic(fmt.Sprintf("archive: job %d: illegal transition %s → %s (state is %s)",
			j.descriptor.Index, from, to, j.state))
	}
	j.state = to
}

func (j *Job) assign() { j.transition(StatePending, StateAssigned) }

func (j *Job) start(now time.Time) {
	j.transition(StateAssigned, StateRunning)
	j.startedAt = now
}

func (j *Job) complete(now time.Time, block encoder.Block, bytesRead int64, sum digest.Digest) {
	j.transition(StateRunning, StateCompleted)
	j.block = block
	j.bytesRead = bytesRead
	j.digest = sum
	j.finishedAt = now
}

func (j *Job) fail(now time.Time, kind ErrorKind, cause error) {
	j.transition(StateRunning, StateFailed)
	j.block = encoder.Block{}
	j.err = &JobError{
		Index: j.descriptor.Index,
		Name:  j.descriptor.Name,
		Kind:  kind,
		Err:   cause,
	}
	j.finishedAt = now
}

// release drops the compressed block once it has been written out.
func (j *Job) release() {
	j.block.Data = nil
}
