// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package source provides byte sources for archive descriptors.
//
// [File] reads a local file and, on Linux, answers prefetch requests
// by asking the kernel to start reading the file into the page cache.
// [Bytes] serves an in-memory slice. [Buffered] wraps a slow source
// (a network blob, a FUSE file) so that a prefetch pulls the whole
// content into memory before a worker opens it, and [Delayed]
// simulates such a source by sleeping on a clock before each open.
// [Walk] turns a directory tree into ordered descriptors.
package source
