// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/parc/lib/archive"
)

// Walk returns descriptors for the regular files under each root, in
// root order and then lexical path order within a root. Indices are
// consecutive from zero. Entry names are slash-separated and relative
// to their root; a root that is itself a file is named by its base
// name. Symlinks and special files are skipped.
func Walk(roots ...string) ([]*archive.Descriptor, error) {
	var descriptors []*archive.Descriptor
	add := func(path, name string, info fs.FileInfo) {
		file := FileFromInfo(path, info)
		descriptors = append(descriptors, file.Descriptor(len(descriptors), name))
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if info.Mode().IsRegular() {
			add(root, filepath.Base(root), info)
			continue
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is neither a regular file nor a directory", root)
		}

		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.Type().IsRegular() {
				return nil
			}
			info, err := entry.Info()
			if err != nil {
				return err
			}
			relative, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			add(path, filepath.ToSlash(relative), info)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	return descriptors, nil
}
