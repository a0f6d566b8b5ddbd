// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseWillNeed starts asynchronous read-ahead of the whole file.
func adviseWillNeed(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_WILLNEED)
}
