// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/parc/lib/container"
	"github.com/bureau-foundation/parc/lib/sealed"
)

// openArchive opens the container at path. A sealed archive is
// decrypted into memory with the identities in identityPath. The
// returned close function releases the underlying file.
func openArchive(path, identityPath string) (*container.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	isSealed := sealed.IsSealed(file)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, nil, err
	}

	if !isSealed {
		info, err := file.Stat()
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		reader, err := container.NewReader(file, info.Size())
		if err != nil {
			file.Close()
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return reader, file.Close, nil
	}

	defer file.Close()
	if identityPath == "" {
		return nil, nil, fmt.Errorf("%s is sealed; pass --identity or set identity in the configuration", path)
	}
	identity, err := os.Open(identityPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening identity: %w", err)
	}
	defer identity.Close()
	plaintext, err := sealed.DecryptAll(file, identity)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	reader, err := container.NewReader(bytes.NewReader(plaintext), int64(len(plaintext)))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return reader, func() error { return nil }, nil
}
