// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Prefetcher chooses which inputs to fetch ahead of the workers.
// NextItems is called with the number of jobs finished so far and
// the look-ahead horizon, and returns up to horizon descriptors that
// are about to be needed. Calls are serialized.
type Prefetcher interface {
	NextItems(completed, horizon int) []*Descriptor
}

// PrefetchFunc adapts a function to Prefetcher.
type PrefetchFunc func(completed, horizon int) []*Descriptor

// NextItems calls f.
func (f PrefetchFunc) NextItems(completed, horizon int) []*Descriptor {
	return f(completed, horizon)
}

// WindowPrefetcher returns a Prefetcher that answers with the window
// items[completed:completed+horizon], clipped to the slice.
func WindowPrefetcher(items []*Descriptor) Prefetcher {
	return PrefetchFunc(func(completed, horizon int) []*Descriptor {
		if completed >= len(items) || horizon <= 0 {
			return nil
		}
		return items[completed:min(completed+horizon, len(items))]
	})
}

// prefetchLoop runs the Prefetcher on its own goroutine so that a
// slow callback or a slow fetch never delays a worker. Triggers
// coalesce: if several jobs finish while a request is in progress,
// the next request sees only the latest count.
//
// Fetch errors are ignored. A source that failed to prefetch is
// fetched again by the worker that opens it, and that read reports
// the real error.
type prefetchLoop struct {
	prefetcher Prefetcher
	horizon    int
	logger     *slog.Logger

	trigger   chan int
	slots     *semaphore.Weighted
	requested map[*Descriptor]struct{}
	fetches   sync.WaitGroup

	cancel context.CancelFunc
	done   chan struct{}
}

func startPrefetch(ctx context.Context, prefetcher Prefetcher, horizon int, logger *slog.Logger) *prefetchLoop {
	ctx, cancel := context.WithCancel(ctx)
	loop := &prefetchLoop{
		prefetcher: prefetcher,
		horizon:    horizon,
		logger:     logger,
		trigger:    make(chan int, 1),
		slots:      semaphore.NewWeighted(int64(horizon)),
		requested:  make(map[*Descriptor]struct{}),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go loop.run(ctx)
	return loop
}

// notify requests a prefetch pass for the given finished count. It
// never blocks. notify must only be called from one goroutine.
func (p *prefetchLoop) notify(completed int) {
	select {
	case <-p.trigger:
	default:
	}
	p.trigger <- completed
}

// stop cancels outstanding fetches and waits for the loop to exit.
func (p *prefetchLoop) stop() {
	p.cancel()
	<-p.done
}

func (p *prefetchLoop) run(ctx context.Context) {
	defer close(p.done)
	defer p.fetches.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case completed := <-p.trigger:
			p.request(ctx, completed)
		}
	}
}

func (p *prefetchLoop) request(ctx context.Context, completed int) {
	for _, descriptor := range p.prefetcher.NextItems(completed, p.horizon) {
		if descriptor == nil {
			continue
		}
		if _, seen := p.requested[descriptor]; seen {
			continue
		}
		p.requested[descriptor] = struct{}{}

		fetcher, ok := descriptor.Source.(Fetcher)
		if !ok {
			continue
		}
		if err := p.slots.Acquire(ctx, 1); err != nil {
			return
		}
		p.fetches.Add(1)
		go func() {
			defer p.fetches.Done()
			defer p.slots.Release(1)
			if err := fetcher.Fetch(ctx); err != nil {
				p.logger.Debug("prefetch failed",
					"index", descriptor.Index,
					"name", descriptor.Name,
					"error", err,
				)
			}
		}()
	}
}
