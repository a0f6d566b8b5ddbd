// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bureau-foundation/parc/lib/archive"
)

// BufferedSource wraps a slow source so its content can be pulled
// into memory ahead of Open.
//
// The first Fetch reads the inner source to EOF. Concurrent and
// later Fetch calls share that read. Open serves the fetched bytes
// once, without touching the inner source; if a fetch is still in
// flight Open waits for it, and if no fetch ran (or it failed) Open
// falls back to the inner source.
type BufferedSource struct {
	inner archive.Source

	mu      sync.Mutex
	started bool
	data    []byte
	err     error
	ready   chan struct{}
}

// Buffered wraps inner.
func Buffered(inner archive.Source) *BufferedSource {
	return &BufferedSource{inner: inner, ready: make(chan struct{})}
}

// Ready is closed once a fetch has finished, successfully or not.
func (b *BufferedSource) Ready() <-chan struct{} { return b.ready }

// Fetch reads the inner source into memory.
func (b *BufferedSource) Fetch(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		select {
		case <-b.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.err
	}
	b.started = true
	b.mu.Unlock()

	data, err := readAll(ctx, b.inner)

	b.mu.Lock()
	b.data, b.err = data, err
	b.mu.Unlock()
	close(b.ready)
	return err
}

// Open returns the fetched bytes, or opens the inner source.
func (b *BufferedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()

	if started {
		select {
		case <-b.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		b.mu.Lock()
		data, err := b.data, b.err
		b.data = nil
		b.mu.Unlock()
		if err == nil && data != nil {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}
	return b.inner.Open(ctx)
}

// Size reports the inner source's size, if it has one.
func (b *BufferedSource) Size() (int64, bool) {
	if sizer, ok := b.inner.(archive.Sizer); ok {
		return sizer.Size()
	}
	return 0, false
}

func readAll(ctx context.Context, source archive.Source) ([]byte, error) {
	reader, err := source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer reader.Close()

	var buffer bytes.Buffer
	if sizer, ok := source.(archive.Sizer); ok {
		if size, known := sizer.Size(); known && size > 0 {
			buffer.Grow(int(size))
		}
	}
	if _, err := buffer.ReadFrom(contextReader{ctx: ctx, reader: reader}); err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	// A non-nil slice marks a successful fetch, even when empty.
	if buffer.Len() == 0 {
		return []byte{}, nil
	}
	return buffer.Bytes(), nil
}

type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.reader.Read(p)
}
