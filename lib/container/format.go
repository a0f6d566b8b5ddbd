// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"errors"
	"io/fs"
	"time"

	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/digest"
	"github.com/bureau-foundation/parc/lib/encoder"
)

const (
	formatVersion = 1
	headerSize    = 8
	footerSize    = 16 + digest.Size
)

var magic = [4]byte{'P', 'A', 'R', 'C'}

var (
	// ErrNotContainer is returned when the file does not start with
	// the container magic.
	ErrNotContainer = errors.New("not a parc container")

	// ErrUnsupportedVersion is returned for containers written by a
	// newer format version.
	ErrUnsupportedVersion = errors.New("unsupported container version")

	// ErrCorrupt is returned when the container structure is
	// inconsistent (bad bounds, undecodable toc).
	ErrCorrupt = errors.New("corrupt container")

	// ErrChecksum is returned by Verify when the container checksum
	// does not match.
	ErrChecksum = errors.New("container checksum mismatch")

	// ErrDigestMismatch is returned by Extract when an entry's bytes
	// do not match its recorded digest.
	ErrDigestMismatch = errors.New("entry digest mismatch")
)

func header() [headerSize]byte {
	return [headerSize]byte{magic[0], magic[1], magic[2], magic[3], formatVersion}
}

// toc is the CBOR table of contents.
type toc struct {
	Version int        `cbor:"version"`
	Entries []tocEntry `cbor:"entries"`
}

type tocEntry struct {
	Index          int            `cbor:"index"`
	Name           string         `cbor:"name"`
	Size           int64          `cbor:"size"`
	CompressedSize int64          `cbor:"compressed_size"`
	Offset         int64          `cbor:"offset"`
	Method         uint8          `cbor:"method"`
	Mode           uint32         `cbor:"mode"`
	ModTime        int64          `cbor:"mod_time,omitempty"`
	Digest         []byte         `cbor:"digest"`
}

func newTOCEntry(entry archive.Entry) tocEntry {
	var modTime int64
	if !entry.ModTime.IsZero() {
		modTime = entry.ModTime.UnixNano()
	}
	return tocEntry{
		Index:          entry.Index,
		Name:           entry.Name,
		Size:           entry.Size,
		CompressedSize: entry.CompressedSize,
		Offset:         entry.Offset,
		Method:         uint8(entry.Method),
		Mode:           uint32(entry.Mode),
		ModTime:        modTime,
		Digest:         entry.Digest[:],
	}
}

func (e tocEntry) entry() (archive.Entry, error) {
	if len(e.Digest) != digest.Size {
		return archive.Entry{}, errors.New("digest has wrong length")
	}
	var modTime time.Time
	if e.ModTime != 0 {
		modTime = time.Unix(0, e.ModTime).UTC()
	}
	return archive.Entry{
		Index:          e.Index,
		Name:           e.Name,
		Size:           e.Size,
		CompressedSize: e.CompressedSize,
		Offset:         e.Offset,
		Method:         encoder.Method(e.Method),
		Mode:           fs.FileMode(e.Mode),
		ModTime:        modTime,
		Digest:         digest.Digest(e.Digest),
	}, nil
}
