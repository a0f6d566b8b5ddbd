// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/parc/lib/digest"
	"github.com/bureau-foundation/parc/lib/encoder"
)

func TestJobLifecycle(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := newJob(&Descriptor{Index: 4, Name: "a.txt"})
	if job.State() != StatePending {
		t.Fatalf("new job state = %s", job.State())
	}
	job.assign()
	job.start(start)
	if job.State() != StateRunning {
		t.Fatalf("started job state = %s", job.State())
	}
	sum := digest.Entry([]byte("hello"))
	job.complete(start.Add(time.Second), encoder.Block{Data: []byte("hello")}, 5, sum)

	if job.State() != StateCompleted || !job.State().Terminal() {
		t.Errorf("state = %s, want terminal completed", job.State())
	}
	if job.BytesRead() != 5 || job.Digest() != sum || job.Duration() != time.Second {
		t.Errorf("completed job = read %d, digest %s, duration %v", job.BytesRead(), job.Digest().Short(), job.Duration())
	}
	job.release()
	if job.Block().Data != nil {
		t.Error("release kept the block data")
	}
}

func TestJobFailRecordsError(t *testing.T) {
	job := newJob(&Descriptor{Index: 2, Name: "b.txt"})
	job.assign()
	job.start(time.Time{})
	job.fail(time.Time{}, SourceReadError, errDiskOnFire)

	if job.State() != StateFailed {
		t.Fatalf("state = %s, want failed", job.State())
	}
	jobError := job.Err()
	if jobError.Index != 2 || jobError.Name != "b.txt" || jobError.Kind != SourceReadError {
		t.Errorf("Err() = %+v", jobError)
	}
	if !errors.Is(jobError, errDiskOnFire) {
		t.Error("job error does not wrap its cause")
	}
	if KindOf(jobError) != SourceReadError {
		t.Errorf("KindOf = %s", KindOf(jobError))
	}
}

func TestJobIllegalTransitionPanics(t *testing.T) {
	job := newJob(&Descriptor{Index: 1})
	defer func() {
		if recover() == nil {
			t.Error("starting a pending job did not panic")
		}
	}()
	job.start(time.Time{})
}

func TestJobCannotBeAssignedTwice(t *testing.T) {
	job := newJob(&Descriptor{Index: 1})
	job.assign()
	defer func() {
		if recover() == nil {
			t.Error("second assign did not panic")
		}
	}()
	job.assign()
}

func TestConfigErrorMatchesErrConfiguration(t *testing.T) {
	err := configErrorf("threads", nil, "thread count must be positive, got %d", 0)
	if !errors.Is(err, ErrConfiguration) {
		t.Error("ConfigError does not match ErrConfiguration")
	}
	if KindOf(err) != ConfigurationError {
		t.Errorf("KindOf = %s", KindOf(err))
	}
	if got, want := err.Error(), "invalid threads: thread count must be positive, got 0"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	wrapped := configErrorf("method", encoder.ErrUnknownMethod, "not registered")
	if !errors.Is(wrapped, encoder.ErrUnknownMethod) {
		t.Error("ConfigError does not unwrap its cause")
	}
}
