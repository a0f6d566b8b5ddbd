// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"sync"
)

// JobQueue is the set of pending jobs shared by the workers. It
// hands jobs out in push order, but callers must not depend on that:
// output order is restored from the descriptor indices afterwards.
//
// JobQueue is safe for concurrent use.
type JobQueue struct {
	mu      sync.Mutex
	pending []*Job
	head    int
	closed  bool
}

// NewJobQueue returns an empty queue with room for capacity jobs.
func NewJobQueue(capacity int) *JobQueue {
	return &JobQueue{pending: make([]*Job, 0, capacity)}
}

// Push appends a pending job. Push fails after Close.
func (q *JobQueue) Push(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if job.state != StatePending {
		return fmt.Errorf("job %d is %s, not pending", job.Index(), job.state)
	}
	q.pending = append(q.pending, job)
	return nil
}

// Close marks the queue as complete: no more jobs will be pushed.
func (q *JobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// TryTake removes one pending job, marks it Assigned, and returns it.
// Removal and assignment happen under the same lock, so two callers
// never receive the same job. ok is false when no job is pending.
func (q *JobQueue) TryTake() (job *Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.pending) {
		return nil, false
	}
	job = q.pending[q.head]
	q.pending[q.head] = nil
	q.head++
	job.assign()
	return job, true
}

// Len returns the number of pending jobs.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) - q.head
}

// Drained reports whether the queue is closed and empty: no job is
// pending and none will be pushed.
func (q *JobQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && q.head == len(q.pending)
}
