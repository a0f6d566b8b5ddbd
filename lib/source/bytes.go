// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"io"
)

// BytesSource serves an in-memory slice.
type BytesSource struct {
	data []byte
}

// Bytes returns a source for data. The slice must not be modified
// while the source is in use.
func Bytes(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

// Open returns a reader over the slice.
func (b *BytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// Size returns len(data).
func (b *BytesSource) Size() (int64, bool) {
	return int64(len(b.data)), true
}
