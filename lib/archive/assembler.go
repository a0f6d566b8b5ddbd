// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/bureau-foundation/parc/lib/digest"
	"github.com/bureau-foundation/parc/lib/encoder"
)

// Entry locates one compressed input in the archive payload.
type Entry struct {
	Index int
	Name  string

	// Size is the uncompressed size.
	Size int64

	// Offset is the block's position relative to the start of the
	// payload, and CompressedSize its length.
	Offset         int64
	CompressedSize int64

	Method  encoder.Method
	Mode    fs.FileMode
	ModTime time.Time

	// Digest is the entry digest of the uncompressed bytes.
	Digest digest.Digest
}

// ContainerWriter receives the payload bytes followed by the entry
// table. Finish is called once, after the last block, and writes
// whatever the container format needs to make the archive readable.
type ContainerWriter interface {
	io.Writer
	Finish(entries []Entry) error
}

// Assembler writes completed blocks in index order.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler returns an assembler. A nil logger discards.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{logger: logger}
}

// Assemble writes the block of every job to sink and returns the
// entry table and payload size. Jobs must all be Completed and
// sorted by strictly increasing index; anything else is a caller bug
// and is reported before a byte is written.
func (a *Assembler) Assemble(jobs []*Job, sink io.Writer) ([]Entry, int64, error) {
	for i, job := range jobs {
		if job.state != StateCompleted {
			return nil, 0, fmt.Errorf("assembling job %d: state is %s, not completed", job.Index(), job.state)
		}
		if i > 0 && job.Index() <= jobs[i-1].Index() {
			return nil, 0, fmt.Errorf("assembling job %d: out of order after job %d",
				job.Index(), jobs[i-1].Index())
		}
	}

	entries := make([]Entry, 0, len(jobs))
	var offset int64
	for _, job := range jobs {
		descriptor := job.descriptor
		n, err := sink.Write(job.block.Data)
		if err == nil && n != len(job.block.Data) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return nil, 0, fmt.Errorf("writing block for %s: %w", descriptor.Name, err)
		}
		entries = append(entries, Entry{
			Index:          descriptor.Index,
			Name:           descriptor.Name,
			Size:           job.bytesRead,
			Offset:         offset,
			CompressedSize: int64(n),
			Method:         job.block.Method,
			Mode:           descriptor.Mode,
			ModTime:        descriptor.ModTime,
			Digest:         job.digest,
		})
		offset += int64(n)
	}
	a.logger.Debug("payload assembled", "entries", len(entries), "payload_bytes", offset)
	return entries, offset, nil
}
