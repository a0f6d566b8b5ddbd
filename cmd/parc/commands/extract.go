// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/parc/cmd/parc/cli"
	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/container"
	"github.com/bureau-foundation/parc/lib/encoder"
)

func extractCommand(app *App) *cli.Command {
	var params readParams
	var directory string

	return &cli.Command{
		Name:    "extract",
		Summary: "Extract entries from an archive",
		Description: `Decompress entries into a directory, checking each against its
recorded digest. With no NAME arguments every entry is extracted.`,
		Usage: "parc extract [flags] ARCHIVE [NAME...]",
		Examples: []cli.Example{
			{Command: "parc extract -C restore logs.parc"},
			{
				Description: "Extract one entry",
				Command:     "parc extract logs.parc app/current.log",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			params.bind(flagSet)
			flagSet.StringVarP(&directory, "directory", "C", ".", "directory to extract into")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("an archive is required")
			}
			identity, err := params.identity(app)
			if err != nil {
				return err
			}
			reader, closeArchive, err := openArchive(args[0], identity)
			if err != nil {
				return err
			}
			defer closeArchive()

			entries, err := selectEntries(reader, args[1:])
			if err != nil {
				return err
			}
			var total int64
			for _, entry := range entries {
				if err := extractEntry(reader, app.Registry, entry, directory); err != nil {
					return err
				}
				logger.Debug("extracted", "name", entry.Name, "size", entry.Size)
				total += entry.Size
			}
			fmt.Fprintf(app.Stdout, "extracted %d entries (%s) to %s\n",
				len(entries), humanize.IBytes(uint64(total)), directory)
			return nil
		},
	}
}

// selectEntries returns the entries named by names, or every entry
// when names is empty.
func selectEntries(reader *container.Reader, names []string) ([]archive.Entry, error) {
	if len(names) == 0 {
		return reader.Entries(), nil
	}
	entries := make([]archive.Entry, 0, len(names))
	for _, name := range names {
		entry, ok := reader.Find(name)
		if !ok {
			return nil, fmt.Errorf("no entry named %q", name)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func extractEntry(reader *container.Reader, registry *encoder.Registry, entry archive.Entry, directory string) error {
	if !filepath.IsLocal(filepath.FromSlash(entry.Name)) {
		return fmt.Errorf("refusing to extract %q outside the target directory", entry.Name)
	}
	data, err := reader.Extract(entry, registry)
	if err != nil {
		return err
	}
	path := filepath.Join(directory, filepath.FromSlash(entry.Name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	mode := entry.Mode.Perm()
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return err
	}
	if !entry.ModTime.IsZero() {
		if err := os.Chtimes(path, entry.ModTime, entry.ModTime); err != nil {
			return err
		}
	}
	return nil
}
