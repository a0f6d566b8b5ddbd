// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger on stderr. When stderr
// is a terminal it uses slog.TextHandler for human-readable output;
// when stderr is piped or redirected it uses slog.JSONHandler.
//
// The level is read on every record, so commands can raise or lower
// it after loading configuration:
//
//	level := new(slog.LevelVar)
//	logger := cli.NewCommandLogger(level)
//	...
//	level.Set(config.SlogLevel())
func NewCommandLogger(level slog.Leveler) *slog.Logger {
	return slog.New(newHandler(os.Stderr, IsTerminal(os.Stderr), level))
}

// IsTerminal reports whether file is attached to a terminal.
func IsTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}

func newHandler(w io.Writer, terminal bool, level slog.Leveler) slog.Handler {
	options := &slog.HandlerOptions{Level: level}
	if terminal {
		return slog.NewTextHandler(w, options)
	}
	return slog.NewJSONHandler(w, options)
}
