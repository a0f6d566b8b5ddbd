// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// SizeUnknown is the declared size of a streaming input whose length
// is not known in advance.
const SizeUnknown int64 = -1

// Source is a readable byte source. Open may be called once per job;
// the returned reader is read sequentially to EOF and then closed.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Sizer is implemented by sources that know their length. When both
// the source and the descriptor declare a size, they must agree.
type Sizer interface {
	Size() (int64, bool)
}

// Fetcher is implemented by sources that can fetch their content
// ahead of Open, for example by starting a network transfer or asking
// the kernel to read a file into the page cache. Fetch must be safe to
// call concurrently with Open and more than once.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Descriptor is the immutable description of one input. Descriptors
// are owned by the caller; the engine keeps pointers to them and
// never modifies them.
type Descriptor struct {
	// Index is the input's position in the original order. Indices
	// must be unique and non-negative; entries come out sorted by
	// Index.
	Index int

	// Name is the display name and the entry name in the archive.
	Name string

	// Size is the declared uncompressed size, or SizeUnknown.
	Size int64

	// ModTime is the input's modification time.
	ModTime time.Time

	// Mode carries the input's attribute flags.
	Mode fs.FileMode

	// Source provides the bytes.
	Source Source
}

// FuncSource adapts a function to the Source interface.
type FuncSource func(ctx context.Context) (io.ReadCloser, error)

// Open calls f.
func (f FuncSource) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }
