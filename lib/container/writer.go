// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/codec"
	"github.com/bureau-foundation/parc/lib/digest"
)

// Writer streams a container to an underlying writer. Payload bytes
// go through Write; Finish appends the toc and footer. The header is
// written before the first payload byte (or by Finish for an empty
// payload).
type Writer struct {
	w        io.Writer
	hasher   hash.Hash
	started  bool
	finished bool
	payload  int64
	checksum digest.Digest
}

// NewWriter returns a writer that writes a container to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, hasher: digest.NewContainerHasher()}
}

var errFinished = errors.New("container already finished")

// write sends p to the underlying writer and the checksum.
func (w *Writer) write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.hasher.Write(p[:n])
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	header := header()
	if _, err := w.write(header[:]); err != nil {
		return fmt.Errorf("writing container header: %w", err)
	}
	return nil
}

// Write appends payload bytes.
func (w *Writer) Write(p []byte) (int, error) {
	if w.finished {
		return 0, errFinished
	}
	if err := w.start(); err != nil {
		return 0, err
	}
	n, err := w.write(p)
	w.payload += int64(n)
	return n, err
}

// Finish writes the table of contents and footer. The entries must
// tile the payload exactly: the first starts at offset 0, each
// starts where the previous one ended, and the last ends at the end
// of the payload.
func (w *Writer) Finish(entries []archive.Entry) error {
	if w.finished {
		return errFinished
	}
	var offset int64
	table := toc{Version: formatVersion, Entries: make([]tocEntry, 0, len(entries))}
	for i, entry := range entries {
		if entry.Offset != offset || entry.CompressedSize < 0 {
			return fmt.Errorf("entry %d (%s) at offset %d+%d does not follow the previous entry ending at %d",
				i, entry.Name, entry.Offset, entry.CompressedSize, offset)
		}
		offset += entry.CompressedSize
		table.Entries = append(table.Entries, newTOCEntry(entry))
	}
	if offset != w.payload {
		return fmt.Errorf("entries cover %d payload bytes, %d were written", offset, w.payload)
	}

	encoded, err := codec.Marshal(table)
	if err != nil {
		return fmt.Errorf("encoding table of contents: %w", err)
	}
	if err := w.start(); err != nil {
		return err
	}
	if _, err := w.write(encoded); err != nil {
		return fmt.Errorf("writing table of contents: %w", err)
	}

	w.checksum = digest.FromSum(w.hasher)
	var footer [footerSize]byte
	binary.LittleEndian.PutUint64(footer[0:8], uint64(headerSize+w.payload))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(len(encoded)))
	copy(footer[16:], w.checksum[:])
	if n, err := w.w.Write(footer[:]); err != nil || n != len(footer) {
		if err == nil {
			err = io.ErrShortWrite
		}
		return fmt.Errorf("writing container footer: %w", err)
	}
	w.finished = true
	return nil
}

// Checksum returns the container checksum after Finish.
func (w *Writer) Checksum() digest.Digest { return w.checksum }
