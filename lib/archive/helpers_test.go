// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bureau-foundation/parc/lib/encoder"
)

// memorySource serves a fixed byte slice. Setting jitter makes every
// Read yield the processor a random number of times so that workers
// interleave differently between runs.
type memorySource struct {
	data   []byte
	jitter bool
	opens  atomic.Int32

	// beforeOpen, if set, runs at the start of every Open.
	beforeOpen func()
}

func (s *memorySource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.opens.Add(1)
	if s.beforeOpen != nil {
		s.beforeOpen()
	}
	var reader io.Reader = bytes.NewReader(s.data)
	if s.jitter {
		reader = &jitterReader{reader: reader}
	}
	return io.NopCloser(reader), nil
}

type jitterReader struct {
	reader io.Reader
}

func (r *jitterReader) Read(buffer []byte) (int, error) {
	for range rand.IntN(8) {
		runtime.Gosched()
	}
	if len(buffer) > 4096 {
		buffer = buffer[:4096]
	}
	return r.reader.Read(buffer)
}

// failingSource yields prefix and then fails with err. A nil prefix
// with openErr set fails at Open instead.
type failingSource struct {
	prefix  []byte
	err     error
	openErr error
}

func (s *failingSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return io.NopCloser(io.MultiReader(bytes.NewReader(s.prefix), errorReader{s.err})), nil
}

type errorReader struct{ err error }

func (r errorReader) Read([]byte) (int, error) { return 0, r.err }

var errDiskOnFire = errors.New("disk on fire")

// memorySink is a ContainerWriter that keeps everything in memory.
type memorySink struct {
	bytes.Buffer
	entries  []Entry
	finishes int
}

func (s *memorySink) Finish(entries []Entry) error {
	s.entries = entries
	s.finishes++
	return nil
}

// testPayload returns deterministic, moderately compressible content.
func testPayload(seed uint64, size int) []byte {
	random := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	var buffer bytes.Buffer
	for buffer.Len() < size {
		buffer.WriteString(words[random.IntN(len(words))])
		buffer.WriteByte(byte(' ' + random.IntN(3)))
	}
	return buffer.Bytes()[:size]
}

// testBatch builds n descriptors whose sizes vary with the index.
func testBatch(n int, jitter bool) ([]*Descriptor, []*memorySource) {
	descriptors := make([]*Descriptor, n)
	sources := make([]*memorySource, n)
	for i := range n {
		sources[i] = &memorySource{data: testPayload(uint64(i), 100+i*997%20000), jitter: jitter}
		descriptors[i] = &Descriptor{
			Index:  i,
			Name:   fmt.Sprintf("file-%03d.txt", i),
			Size:   int64(len(sources[i].data)),
			Mode:   0o644,
			Source: sources[i],
		}
	}
	return descriptors, sources
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	coordinator, err := NewCoordinator(CoordinatorConfig{Registry: encoder.NewDefaultRegistry()})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return coordinator
}

func newTestPool(t *testing.T, config PoolConfig) *WorkerPool {
	t.Helper()
	if config.Registry == nil {
		config.Registry = encoder.NewDefaultRegistry()
	}
	pool, err := NewWorkerPool(config)
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}
	return pool
}

// decodeEntry extracts one entry's bytes from an assembled payload.
func decodeEntry(t *testing.T, registry *encoder.Registry, payload []byte, entry Entry) []byte {
	t.Helper()
	decoder, err := registry.NewDecoder(entry.Method)
	if err != nil {
		t.Fatalf("NewDecoder(%s): %v", entry.Method, err)
	}
	block := payload[entry.Offset : entry.Offset+entry.CompressedSize]
	data, err := decoder.Decode(block, entry.Size)
	if err != nil {
		t.Fatalf("decoding %s: %v", entry.Name, err)
	}
	return data
}

// eventLog records observer events and checks that calls never
// overlap.
type eventLog struct {
	mu        sync.Mutex
	inside    atomic.Bool
	overlap   atomic.Bool
	completed []JobEvent
	failed    []JobEvent
}

func (l *eventLog) enter() {
	if !l.inside.CompareAndSwap(false, true) {
		l.overlap.Store(true)
	}
}

func (l *eventLog) leave() { l.inside.Store(false) }

func (l *eventLog) JobCompleted(event JobEvent) {
	l.enter()
	defer l.leave()
	l.mu.Lock()
	l.completed = append(l.completed, event)
	l.mu.Unlock()
}

func (l *eventLog) JobFailed(event JobEvent) {
	l.enter()
	defer l.leave()
	l.mu.Lock()
	l.failed = append(l.failed, event)
	l.mu.Unlock()
}
