// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/parc/lib/archive"
)

// newProgressPrinter returns an observer that writes one line per
// finished input to w, or nil when w is nil.
func newProgressPrinter(w io.Writer) archive.Observer {
	if w == nil {
		return nil
	}
	return archive.ObserverFuncs{
		Completed: func(event archive.JobEvent) {
			fmt.Fprintf(w, "[%d/%d] %s %s -> %s\n", event.Finished, event.Total, event.Name,
				humanize.IBytes(uint64(event.InputSize)), humanize.IBytes(uint64(event.OutputSize)))
		},
		Failed: func(event archive.JobEvent) {
			fmt.Fprintf(w, "[%d/%d] %s FAILED (%s)\n", event.Finished, event.Total, event.Name, event.Err.Kind)
		},
	}
}
