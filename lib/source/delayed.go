// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"io"
	"time"

	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/clock"
)

// DelayedSource adds a fixed latency, measured on a Clock, before
// every Open of the inner source. It stands in for a remote store
// when exercising prefetch; wrap it in Buffered so a prefetch pays
// the latency ahead of the worker.
type DelayedSource struct {
	inner   archive.Source
	latency time.Duration
	clock   clock.Clock
}

// Delayed wraps inner with latency. A nil clock uses the real clock.
func Delayed(inner archive.Source, latency time.Duration, c clock.Clock) *DelayedSource {
	if c == nil {
		c = clock.Real()
	}
	return &DelayedSource{inner: inner, latency: latency, clock: c}
}

// Open waits out the latency and opens the inner source.
func (d *DelayedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := d.clock.Sleep(ctx, d.latency); err != nil {
		return nil, err
	}
	return d.inner.Open(ctx)
}

// Size reports the inner source's size, if it has one.
func (d *DelayedSource) Size() (int64, bool) {
	if sizer, ok := d.inner.(archive.Sizer); ok {
		return sizer.Size()
	}
	return 0, false
}
