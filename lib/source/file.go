// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/bureau-foundation/parc/lib/archive"
)

// FileSource reads a local file. The file is opened on demand, so a
// batch of thousands of files holds at most one descriptor per
// worker.
type FileSource struct {
	path string
	info fs.FileInfo
}

// File stats path and returns a source for it.
func File(path string) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	return FileFromInfo(path, info), nil
}

// FileFromInfo returns a source for path using an existing stat
// result.
func FileFromInfo(path string, info fs.FileInfo) *FileSource {
	return &FileSource{path: path, info: info}
}

// Path returns the file's path.
func (f *FileSource) Path() string { return f.path }

// Open opens the file for reading.
func (f *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(f.path)
}

// Size returns the size recorded when the source was created.
func (f *FileSource) Size() (int64, bool) {
	return f.info.Size(), true
}

// Fetch hints the kernel to read the file ahead of Open.
func (f *FileSource) Fetch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return adviseWillNeed(f.path)
}

// Descriptor returns a descriptor for the file with its stat
// attributes.
func (f *FileSource) Descriptor(index int, name string) *archive.Descriptor {
	return &archive.Descriptor{
		Index:   index,
		Name:    name,
		Size:    f.info.Size(),
		ModTime: f.info.ModTime(),
		Mode:    f.info.Mode(),
		Source:  f,
	}
}
