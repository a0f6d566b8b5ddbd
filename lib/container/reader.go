// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/codec"
	"github.com/bureau-foundation/parc/lib/digest"
	"github.com/bureau-foundation/parc/lib/encoder"
)

// Reader reads a finished container.
type Reader struct {
	r         io.ReaderAt
	tocOffset int64
	tocLength int64
	rawTOC    []byte
	checksum  digest.Digest
	entries   []archive.Entry
}

// NewReader parses the header, footer, and table of contents of the
// size-byte container in r.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	if size < headerSize+footerSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrNotContainer, size)
	}
	var head [headerSize]byte
	if _, err := r.ReadAt(head[:], 0); err != nil {
		return nil, fmt.Errorf("reading container header: %w", err)
	}
	if !bytes.Equal(head[:4], magic[:]) {
		return nil, ErrNotContainer
	}
	if head[4] != formatVersion {
		return nil, fmt.Errorf("%w: version %d (this build reads version %d)",
			ErrUnsupportedVersion, head[4], formatVersion)
	}
	if head[5] != 0 || head[6] != 0 || head[7] != 0 {
		return nil, fmt.Errorf("%w: non-zero reserved header bytes %x", ErrCorrupt, head[5:])
	}

	var footer [footerSize]byte
	if _, err := r.ReadAt(footer[:], size-footerSize); err != nil {
		return nil, fmt.Errorf("reading container footer: %w", err)
	}
	reader := &Reader{
		r:         r,
		tocOffset: int64(binary.LittleEndian.Uint64(footer[0:8])),
		tocLength: int64(binary.LittleEndian.Uint64(footer[8:16])),
		checksum:  digest.Digest(footer[16:]),
	}
	if reader.tocOffset < headerSize || reader.tocLength <= 0 ||
		reader.tocOffset+reader.tocLength != size-footerSize {
		return nil, fmt.Errorf("%w: table of contents at %d+%d in a %d-byte file",
			ErrCorrupt, reader.tocOffset, reader.tocLength, size)
	}

	reader.rawTOC = make([]byte, reader.tocLength)
	if _, err := r.ReadAt(reader.rawTOC, reader.tocOffset); err != nil {
		return nil, fmt.Errorf("reading table of contents: %w", err)
	}
	var table toc
	if err := codec.Unmarshal(reader.rawTOC, &table); err != nil {
		return nil, fmt.Errorf("%w: decoding table of contents: %v", ErrCorrupt, err)
	}
	if table.Version != formatVersion {
		return nil, fmt.Errorf("%w: table of contents version %d", ErrUnsupportedVersion, table.Version)
	}

	payloadSize := reader.tocOffset - headerSize
	var offset int64
	for i, raw := range table.Entries {
		entry, err := raw.entry()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrCorrupt, i, err)
		}
		if entry.Offset != offset || entry.CompressedSize < 0 || entry.Size < 0 {
			return nil, fmt.Errorf("%w: entry %d (%s) has bad extent %d+%d",
				ErrCorrupt, i, entry.Name, entry.Offset, entry.CompressedSize)
		}
		offset += entry.CompressedSize
		reader.entries = append(reader.entries, entry)
	}
	if offset != payloadSize {
		return nil, fmt.Errorf("%w: entries cover %d of %d payload bytes", ErrCorrupt, offset, payloadSize)
	}
	return reader, nil
}

// OpenFile opens the container at path. The caller closes the
// returned file when done with the reader.
func OpenFile(path string) (*Reader, *os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	reader, err := NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return reader, file, nil
}

// Entries returns the entry table in archive order.
func (r *Reader) Entries() []archive.Entry { return r.entries }

// Checksum returns the checksum recorded in the footer.
func (r *Reader) Checksum() digest.Digest { return r.checksum }

// RawTOC returns the encoded table of contents.
func (r *Reader) RawTOC() []byte { return r.rawTOC }

// PayloadSize returns the total size of the compressed blocks.
func (r *Reader) PayloadSize() int64 { return r.tocOffset - headerSize }

// Find returns the first entry named name.
func (r *Reader) Find(name string) (archive.Entry, bool) {
	for _, entry := range r.entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return archive.Entry{}, false
}

// Verify recomputes the container checksum.
func (r *Reader) Verify() error {
	hasher := digest.NewContainerHasher()
	section := io.NewSectionReader(r.r, 0, r.tocOffset+r.tocLength)
	if _, err := io.Copy(hasher, section); err != nil {
		return fmt.Errorf("reading container: %w", err)
	}
	if sum := digest.FromSum(hasher); sum != r.checksum {
		return fmt.Errorf("%w: footer records %s, content hashes to %s",
			ErrChecksum, r.checksum.Short(), sum.Short())
	}
	return nil
}

// ReadBlock returns the compressed block of entry.
func (r *Reader) ReadBlock(entry archive.Entry) ([]byte, error) {
	block := make([]byte, entry.CompressedSize)
	if _, err := r.r.ReadAt(block, headerSize+entry.Offset); err != nil {
		return nil, fmt.Errorf("reading block for %s: %w", entry.Name, err)
	}
	return block, nil
}

// Extract decompresses entry with a codec from registry and checks
// the result against the entry digest.
func (r *Reader) Extract(entry archive.Entry, registry *encoder.Registry) ([]byte, error) {
	block, err := r.ReadBlock(entry)
	if err != nil {
		return nil, err
	}
	decoder, err := registry.NewDecoder(entry.Method)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", entry.Name, err)
	}
	data, err := decoder.Decode(block, entry.Size)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", entry.Name, err)
	}
	if sum := digest.Entry(data); sum != entry.Digest {
		return nil, fmt.Errorf("%w: %s recorded %s, content hashes to %s",
			ErrDigestMismatch, entry.Name, entry.Digest.Short(), sum.Short())
	}
	return data, nil
}
