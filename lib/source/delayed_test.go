// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/clock"
	"github.com/bureau-foundation/parc/lib/encoder"
	"github.com/bureau-foundation/parc/lib/testutil"
)

var epoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestDelayedOpenWaitsForLatency(t *testing.T) {
	fake := clock.Fake(epoch)
	inner := &gatedSource{data: []byte("far away")}
	delayed := Delayed(inner, 200*time.Millisecond, fake)

	type opened struct {
		data []byte
		err  error
	}
	result := make(chan opened, 1)
	go func() {
		reader, err := delayed.Open(context.Background())
		if err != nil {
			result <- opened{err: err}
			return
		}
		defer reader.Close()
		data, err := io.ReadAll(reader)
		result <- opened{data, err}
	}()

	fake.BlockUntilSleepers(1)
	if inner.opens.Load() != 0 {
		t.Fatal("inner source opened before the latency elapsed")
	}
	fake.Advance(200 * time.Millisecond)
	got := testutil.RequireReceive(t, result, 5*time.Second, "delayed open")
	if got.err != nil || string(got.data) != "far away" {
		t.Fatalf("Open = %q, %v", got.data, got.err)
	}
	if size, known := delayed.Size(); !known || size != 8 {
		t.Errorf("Size() = %d, %v", size, known)
	}
}

func TestDelayedOpenCancelled(t *testing.T) {
	fake := clock.Fake(epoch)
	inner := &gatedSource{data: []byte("never")}
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() {
		_, err := Delayed(inner, time.Hour, fake).Open(ctx)
		errs <- err
	}()
	fake.BlockUntilSleepers(1)
	cancel()

	if err := testutil.RequireReceive(t, errs, 5*time.Second, "cancelled open"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open error = %v, want context.Canceled", err)
	}
	if inner.opens.Load() != 0 {
		t.Error("inner source opened after cancellation")
	}
}

func TestBufferedDelayedPaysLatencyDuringFetch(t *testing.T) {
	fake := clock.Fake(epoch)
	buffered := Buffered(Delayed(Bytes([]byte("prefetched")), time.Second, fake))

	fetched := make(chan error, 1)
	go func() { fetched <- buffered.Fetch(context.Background()) }()
	fake.BlockUntilSleepers(1)
	fake.Advance(time.Second)
	if err := testutil.RequireReceive(t, fetched, 5*time.Second, "fetch"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// Served from memory: no further sleep on the clock.
	if got := readSource(t, buffered); string(got) != "prefetched" {
		t.Errorf("content = %q", got)
	}
	if fake.Sleepers() != 0 {
		t.Errorf("Open slept on the clock after a completed fetch")
	}
}

// countingClock counts Sleep calls on the wrapped clock.
type countingClock struct {
	clock.Clock
	sleeps atomic.Int32
}

func (c *countingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps.Add(1)
	return c.Clock.Sleep(ctx, d)
}

// A single worker is held on job 2 until job 5 has been fetched
// through its latency. When the worker reaches job 5 it is served
// from memory without sleeping again.
func TestPoolPrefetchHidesLatency(t *testing.T) {
	const latency = 250 * time.Millisecond
	fake := clock.Fake(epoch)
	counted := &countingClock{Clock: fake}

	inners := make([]*gatedSource, 6)
	buffered := make([]*BufferedSource, 6)
	descriptors := make([]*archive.Descriptor, 6)
	for i := range descriptors {
		inners[i] = &gatedSource{data: bytes.Repeat([]byte{byte('a' + i)}, 500+i)}
		var c clock.Clock = fake
		if i == 5 {
			c = counted
		}
		buffered[i] = Buffered(Delayed(inners[i], latency, c))
		descriptors[i] = &archive.Descriptor{
			Index:  i,
			Name:   string(rune('a' + i)),
			Size:   int64(len(inners[i].data)),
			Source: buffered[i],
		}
	}
	inners[2].gate = make(chan struct{})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if fake.Sleepers() > 0 {
					fake.Advance(latency)
				}
			}
		}
	}()
	var fetchedWhileHeld atomic.Bool
	go func() {
		select {
		case <-buffered[5].Ready():
			fetchedWhileHeld.Store(true)
		case <-time.After(10 * time.Second):
		}
		close(inners[2].gate)
	}()

	pool, err := archive.NewWorkerPool(archive.PoolConfig{
		Registry:   encoder.NewDefaultRegistry(),
		Method:     encoder.MethodLZ4,
		Clock:      fake,
		Prefetcher: archive.WindowPrefetcher(descriptors),
		LookAhead:  4,
	})
	if err != nil {
		t.Fatal(err)
	}
	result, err := pool.Run(context.Background(), descriptors, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Verdict != archive.AllSucceeded {
		t.Fatalf("verdict = %s", result.Verdict)
	}
	if !fetchedWhileHeld.Load() {
		t.Fatal("job 5 was not prefetched while job 2 was held")
	}
	if sleeps := counted.sleeps.Load(); sleeps != 1 {
		t.Errorf("job 5 slept on the clock %d times, want 1", sleeps)
	}
	if opens := inners[5].opens.Load(); opens != 1 {
		t.Errorf("job 5 source opened %d times, want 1", opens)
	}
}
