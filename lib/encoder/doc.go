// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package encoder provides the per-job compression capability used by
// the archive workers, and the matching decoders used on extraction.
//
// A [Registry] maps a [Method] to a [Codec]. There is no process-wide
// codec table: callers build a registry (usually with
// [NewDefaultRegistry]), optionally register their own codecs, and
// hand it to the archive coordinator.
//
// Built-in methods:
//
//   - store: the input bytes unchanged.
//   - lz4: LZ4 block compression. Level 0 uses the fast compressor,
//     levels 1-9 the high-compression compressor.
//   - zstd: Zstandard, levels 1-22 (0 selects the library default).
//   - bg4_lz4: 4-byte transposition followed by LZ4, for float32
//     arrays whose high-order bytes are similar.
//   - s2: S2 (Snappy-compatible extension), levels 1-3.
//   - deflate: raw DEFLATE, levels 1-9.
//
// An [Encoder] owns reusable scratch buffers and codec state, so it is
// NOT safe for concurrent use. The archive pool creates one encoder per
// worker and keeps it for the worker's lifetime.
//
// When a compressor cannot make the input smaller, the returned
// [Block] carries the raw bytes with [MethodStore]. Callers must
// record Block.Method, not the configured method, for decoding.
package encoder
