// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package container reads and writes the parc archive file format.
//
// A container is laid out as:
//
//	header   8 bytes   "PARC" | version (1) | 3 reserved zero bytes
//	payload  N bytes   compressed blocks, back to back, in entry order
//	toc      M bytes   CBOR table of contents (core deterministic)
//	footer  48 bytes   toc offset (u64 LE) | toc length (u64 LE) |
//	                   container checksum (32 bytes)
//
// The checksum is the container-domain BLAKE3 hash of everything
// before the footer (header, payload, and toc). Entry offsets in the
// toc are relative to the start of the payload. Each entry also
// carries the entry-domain digest of its uncompressed bytes, so a
// reader can verify single entries without hashing the whole file.
//
// [Writer] implements archive.ContainerWriter: the archive assembler
// streams blocks into it and then calls Finish with the entry table.
// [Reader] works on any io.ReaderAt and never loads more than one
// block at a time.
package container
