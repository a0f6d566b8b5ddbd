// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// parc compresses many inputs in parallel into a single ordered
// archive, and lists, extracts, and verifies such archives.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/parc/cmd/parc/cli"
	"github.com/bureau-foundation/parc/cmd/parc/commands"
	"github.com/bureau-foundation/parc/lib/process"
)

func main() {
	process.Exit(run())
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := new(slog.LevelVar)
	app := &commands.App{Stdout: os.Stdout, Level: level}
	if cli.IsTerminal(os.Stderr) {
		app.Progress = os.Stderr
	}
	return commands.Root(app).Execute(ctx, os.Args[1:], cli.NewCommandLogger(level))
}
