// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the parc command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/parc/cmd/parc/cli"
	"github.com/bureau-foundation/parc/lib/config"
	"github.com/bureau-foundation/parc/lib/encoder"
	"github.com/bureau-foundation/parc/lib/version"
)

// App carries the process-level dependencies shared by every command.
type App struct {
	// Stdout receives command output.
	Stdout io.Writer

	// Progress receives per-input progress lines from create. Nil
	// disables progress output.
	Progress io.Writer

	// Level is the logger level. Commands set it from the loaded
	// configuration. May be nil.
	Level *slog.LevelVar

	// Registry provides the codecs.
	Registry *encoder.Registry
}

// Root builds the complete parc command tree.
func Root(app *App) *cli.Command {
	if app.Stdout == nil {
		app.Stdout = io.Discard
	}
	if app.Registry == nil {
		app.Registry = encoder.NewDefaultRegistry()
	}
	return &cli.Command{
		Name: "parc",
		Description: `parc: parallel archive compressor.

Compresses many inputs concurrently into a single archive whose entries
appear in input order, however the workers finish.`,
		Subcommands: []*cli.Command{
			createCommand(app),
			listCommand(app),
			extractCommand(app),
			verifyCommand(app),
			keygenCommand(app),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Fprintf(app.Stdout, "parc %s\n", version.Full())
					return nil
				},
			},
		},
	}
}

// configFlag binds --config, shared by every command that reads
// settings.
func configFlag(flagSet *pflag.FlagSet, path *string) {
	flagSet.StringVar(path, "config", "", "configuration file (default $"+config.EnvironmentVariable+")")
}

// loadConfig reads path, or the file named by PARC_CONFIG, or falls
// back to the built-in defaults, and applies the log level.
func (app *App) loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if app.Level != nil {
		app.Level.Set(cfg.SlogLevel())
	}
	return cfg, nil
}
