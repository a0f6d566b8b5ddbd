// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"runtime"

	"github.com/bureau-foundation/parc/lib/encoder"
)

const (
	// ThreadsAuto selects one worker per available CPU.
	ThreadsAuto = -1

	// MaxThreads is the largest worker count the pool will start.
	// Larger requests are clamped to it.
	MaxThreads = 256
)

// Config controls one CompressAll call.
type Config struct {
	// Threads is the requested worker count: ThreadsAuto or a
	// positive number. Zero and other negative values are
	// configuration errors.
	Threads int

	// Method and Level select the codec every worker uses.
	Method encoder.Method
	Level  int

	// Prefetcher, when set, is asked which upcoming inputs to fetch
	// ahead of the workers.
	Prefetcher Prefetcher

	// LookAhead is the prefetch horizon. Zero selects twice the
	// worker count.
	LookAhead int

	// Observer receives per-job progress events.
	Observer Observer

	// MaxJobSize bounds the uncompressed size of a single input. A
	// larger input fails with OutOfMemory without affecting the rest
	// of the batch. Zero means no limit.
	MaxJobSize int64
}

// resolveThreads validates a requested thread count and returns the
// number of workers to start for jobCount jobs, along with whether
// the request was clamped to MaxThreads.
func resolveThreads(requested, jobCount int) (workers int, clamped bool, err error) {
	threads := requested
	switch {
	case requested == ThreadsAuto:
		threads = runtime.GOMAXPROCS(0)
	case requested <= 0:
		return 0, false, configErrorf("threads", nil,
			"thread count must be positive or auto, got %d", requested)
	}
	if threads > MaxThreads {
		threads = MaxThreads
		clamped = requested != ThreadsAuto
	}
	return min(threads, jobCount), clamped, nil
}
