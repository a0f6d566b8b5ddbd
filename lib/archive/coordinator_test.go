// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bureau-foundation/parc/lib/digest"
	"github.com/bureau-foundation/parc/lib/encoder"
)

func TestCompressAllRoundTrip(t *testing.T) {
	registry := encoder.NewDefaultRegistry()
	coordinator, err := NewCoordinator(CoordinatorConfig{Registry: registry})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	sizes := []int{0, 1024, 1 << 20}
	descriptors := make([]*Descriptor, len(sizes))
	for i, size := range sizes {
		descriptors[i] = &Descriptor{
			Index:  i,
			Name:   fmt.Sprintf("input-%d", i),
			Size:   int64(size),
			Source: &memorySource{data: testPayload(uint64(i+100), size)},
		}
	}

	sink := &memorySink{}
	result, err := coordinator.CompressAll(context.Background(), descriptors, Config{Threads: 2, Method: encoder.MethodZstd}, sink)
	if err != nil {
		t.Fatalf("CompressAll: %v", err)
	}
	if result.Verdict != AllSucceeded {
		t.Fatalf("verdict = %s", result.Verdict)
	}
	if sink.finishes != 1 || len(sink.entries) != 3 {
		t.Fatalf("sink finished %d times with %d entries", sink.finishes, len(sink.entries))
	}
	if result.PayloadSize != int64(sink.Len()) {
		t.Errorf("payload size = %d, sink holds %d", result.PayloadSize, sink.Len())
	}

	payload := sink.Bytes()
	var offset int64
	for i, entry := range sink.entries {
		if entry.Index != i || entry.Name != descriptors[i].Name {
			t.Errorf("entry %d = %d %q", i, entry.Index, entry.Name)
		}
		if entry.Offset != offset {
			t.Errorf("entry %d offset = %d, want %d", i, entry.Offset, offset)
		}
		offset += entry.CompressedSize

		want := descriptors[i].Source.(*memorySource).data
		if entry.Size != int64(sizes[i]) {
			t.Errorf("entry %d size = %d, want %d", i, entry.Size, sizes[i])
		}
		if got := decodeEntry(t, registry, payload, entry); !bytes.Equal(got, want) {
			t.Errorf("entry %d does not round-trip", i)
		}
		if entry.Digest != digest.Entry(want) {
			t.Errorf("entry %d digest mismatch", i)
		}
	}
	if offset != result.PayloadSize {
		t.Errorf("entries cover %d bytes, payload is %d", offset, result.PayloadSize)
	}
	if result.Entries == nil || len(result.Entries) != 3 {
		t.Errorf("result entries = %v", result.Entries)
	}
}

func TestCompressAllOutputIndependentOfThreads(t *testing.T) {
	var reference []byte
	for _, threads := range []int{1, 2, 3, 16, ThreadsAuto} {
		descriptors, _ := testBatch(33, true)
		sink := &memorySink{}
		if _, err := newTestCoordinator(t).CompressAll(context.Background(), descriptors,
			Config{Threads: threads, Method: encoder.MethodLZ4, Level: 4}, sink); err != nil {
			t.Fatalf("threads=%d: %v", threads, err)
		}
		if reference == nil {
			reference = bytes.Clone(sink.Bytes())
			continue
		}
		if !bytes.Equal(sink.Bytes(), reference) {
			t.Errorf("threads=%d: payload differs from threads=1", threads)
		}
	}
}

func TestCompressAllPartialFailure(t *testing.T) {
	for _, failing := range [][]int{{0}, {4}, {1, 3}, {0, 2, 4}} {
		t.Run(fmt.Sprint(failing), func(t *testing.T) {
			descriptors, _ := testBatch(5, false)
			for _, index := range failing {
				descriptors[index].Source = &failingSource{openErr: errDiskOnFire}
			}
			sink := &memorySink{}
			result, err := newTestCoordinator(t).CompressAll(context.Background(), descriptors,
				Config{Threads: 3, Method: encoder.MethodS2}, sink)
			if err != nil {
				t.Fatalf("CompressAll: %v", err)
			}
			if result.Verdict != PartialSuccess {
				t.Errorf("verdict = %s, want partial_success", result.Verdict)
			}
			if len(result.Failed()) != len(failing) {
				t.Errorf("%d failed outcomes, want %d", len(result.Failed()), len(failing))
			}
			if len(sink.entries) != 5-len(failing) {
				t.Fatalf("%d entries, want %d", len(sink.entries), 5-len(failing))
			}
			for i := 1; i < len(sink.entries); i++ {
				if sink.entries[i].Index <= sink.entries[i-1].Index {
					t.Errorf("entries out of order: %d after %d", sink.entries[i].Index, sink.entries[i-1].Index)
				}
			}
			for _, entry := range sink.entries {
				for _, index := range failing {
					if entry.Index == index {
						t.Errorf("failed job %d has an entry", index)
					}
				}
			}
		})
	}
}

func TestCompressAllAllFailed(t *testing.T) {
	descriptors, _ := testBatch(4, false)
	for _, descriptor := range descriptors {
		descriptor.Source = &failingSource{err: errDiskOnFire}
	}
	sink := &memorySink{}
	result, err := newTestCoordinator(t).CompressAll(context.Background(), descriptors,
		Config{Threads: 2, Method: encoder.MethodZstd}, sink)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("error = %v, want ErrAllFailed", err)
	}
	if result == nil || result.Verdict != AllFailed || len(result.Failed()) != 4 {
		t.Fatalf("result = %+v", result)
	}
	if sink.Len() != 0 || sink.finishes != 0 {
		t.Errorf("sink written despite all jobs failing: %d bytes, %d finishes", sink.Len(), sink.finishes)
	}
	if result.Entries != nil {
		t.Errorf("entries = %v, want nil", result.Entries)
	}
}

func TestCompressAllCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	descriptors, sources := testBatch(6, false)

	result, err := newTestCoordinator(t).CompressAll(ctx, descriptors, Config{Threads: 3, Method: encoder.MethodZstd}, &memorySink{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("error = %v, want ErrAllFailed", err)
	}
	for _, outcome := range result.Outcomes {
		if outcome.Err.Kind != Cancelled || !errors.Is(outcome.Err, context.Canceled) {
			t.Errorf("job %d: %v", outcome.Index, outcome.Err)
		}
	}
	for i, source := range sources {
		if source.opens.Load() != 0 {
			t.Errorf("source %d opened after cancellation", i)
		}
	}
}

// sizedSource reports a size that may differ from its content.
type sizedSource struct {
	memorySource
	size int64
}

func (s *sizedSource) Size() (int64, bool) { return s.size, true }

func TestCompressAllConfigurationErrors(t *testing.T) {
	valid := func() []*Descriptor {
		descriptors, _ := testBatch(3, false)
		return descriptors
	}
	tests := []struct {
		name   string
		items  func() []*Descriptor
		config Config
		sink   ContainerWriter
	}{
		{"empty", func() []*Descriptor { return nil }, Config{Threads: 2}, &memorySink{}},
		{"nil descriptor", func() []*Descriptor { return append(valid(), nil) }, Config{Threads: 2}, &memorySink{}},
		{"nil source", func() []*Descriptor {
			items := valid()
			items[1].Source = nil
			return items
		}, Config{Threads: 2}, &memorySink{}},
		{"negative index", func() []*Descriptor {
			items := valid()
			items[0].Index = -1
			return items
		}, Config{Threads: 2}, &memorySink{}},
		{"duplicate index", func() []*Descriptor {
			items := valid()
			items[2].Index = 0
			return items
		}, Config{Threads: 2}, &memorySink{}},
		{"negative size", func() []*Descriptor {
			items := valid()
			items[1].Size = -5
			return items
		}, Config{Threads: 2}, &memorySink{}},
		{"size disagrees with source", func() []*Descriptor {
			items := valid()
			items[1].Source = &sizedSource{memorySource: memorySource{data: []byte("abc")}, size: 3}
			items[1].Size = 4
			return items
		}, Config{Threads: 2}, &memorySink{}},
		{"zero threads", valid, Config{Threads: 0}, &memorySink{}},
		{"negative threads", valid, Config{Threads: -3}, &memorySink{}},
		{"unknown method", valid, Config{Threads: 2, Method: 77}, &memorySink{}},
		{"invalid level", valid, Config{Threads: 2, Method: encoder.MethodLZ4, Level: 12}, &memorySink{}},
		{"negative max job size", valid, Config{Threads: 2, MaxJobSize: -1}, &memorySink{}},
		{"nil sink", valid, Config{Threads: 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestCoordinator(t).CompressAll(context.Background(), tt.items(), tt.config, tt.sink)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("error = %v, want configuration error", err)
			}
			if result != nil {
				t.Errorf("result = %+v, want nil", result)
			}
			if sink, ok := tt.sink.(*memorySink); ok && (sink.Len() != 0 || sink.finishes != 0) {
				t.Error("sink written despite configuration error")
			}
		})
	}
}

func TestCompressAllReleasesBlocks(t *testing.T) {
	descriptors, _ := testBatch(4, false)
	result, err := newTestCoordinator(t).CompressAll(context.Background(), descriptors,
		Config{Threads: 2, Method: encoder.MethodZstd}, &memorySink{})
	if err != nil {
		t.Fatalf("CompressAll: %v", err)
	}
	if result.jobs != nil {
		t.Error("result still holds jobs after assembly")
	}
	for _, outcome := range result.Outcomes {
		if outcome.OutputSize == 0 {
			t.Errorf("outcome %d lost its output size", outcome.Index)
		}
	}
}

type failingSink struct {
	memorySink
	writeErr  error
	finishErr error
}

func (s *failingSink) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	return s.memorySink.Write(p)
}

func (s *failingSink) Finish(entries []Entry) error {
	if s.finishErr != nil {
		return s.finishErr
	}
	return s.memorySink.Finish(entries)
}

func TestCompressAllSinkErrors(t *testing.T) {
	for _, sink := range []*failingSink{{writeErr: errDiskOnFire}, {finishErr: errDiskOnFire}} {
		descriptors, _ := testBatch(3, false)
		result, err := newTestCoordinator(t).CompressAll(context.Background(), descriptors,
			Config{Threads: 2, Method: encoder.MethodZstd}, sink)
		if !errors.Is(err, errDiskOnFire) {
			t.Errorf("error = %v, want sink error", err)
		}
		if result == nil || result.Verdict != AllSucceeded {
			t.Errorf("result = %+v", result)
		}
	}
}

func TestNewCoordinatorRequiresRegistry(t *testing.T) {
	if _, err := NewCoordinator(CoordinatorConfig{}); err == nil {
		t.Error("NewCoordinator accepted a config without a registry")
	}
}
