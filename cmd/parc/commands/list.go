// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/parc/cmd/parc/cli"
	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/codec"
)

type readParams struct {
	ConfigPath string
	Identity   string
}

func (p *readParams) bind(flagSet *pflag.FlagSet) {
	configFlag(flagSet, &p.ConfigPath)
	flagSet.StringVar(&p.Identity, "identity", "", "age identity file for sealed archives")
}

// identity returns the identity flag, or the configured identity.
func (p *readParams) identity(app *App) (string, error) {
	if p.Identity != "" {
		return p.Identity, nil
	}
	cfg, err := app.loadConfig(p.ConfigPath)
	if err != nil {
		return "", err
	}
	return cfg.Identity, nil
}

func listCommand(app *App) *cli.Command {
	var params readParams
	var raw bool

	return &cli.Command{
		Name:    "list",
		Summary: "List the entries of an archive",
		Usage:   "parc list [flags] ARCHIVE",
		Examples: []cli.Example{
			{Command: "parc list logs.parc"},
			{
				Description: "Dump the table of contents in CBOR diagnostic notation",
				Command:     "parc list --raw logs.parc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			params.bind(flagSet)
			flagSet.BoolVar(&raw, "raw", false, "print the encoded table of contents instead of a table")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive, got %d arguments", len(args))
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

			if raw {
				diagnostic, err := codec.Diagnose(reader.RawTOC())
				if err != nil {
					return err
				}
				fmt.Fprintln(app.Stdout, diagnostic)
				return nil
			}

			entries := reader.Entries()
			fmt.Fprintln(app.Stdout, renderEntries(entries))
			var size int64
			for _, entry := range entries {
				size += entry.Size
			}
			fmt.Fprintf(app.Stdout, "%d entries, %s in %s, checksum %s\n",
				len(entries), humanize.IBytes(uint64(size)),
				humanize.IBytes(uint64(reader.PayloadSize())), reader.Checksum().Short())
			return nil
		},
	}
}

// Columns holding sizes are right-aligned.
var numericColumns = map[int]bool{0: true, 2: true, 3: true}

func renderEntries(entries []archive.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		modified := ""
		if !entry.ModTime.IsZero() {
			modified = entry.ModTime.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			strconv.Itoa(entry.Index),
			entry.Name,
			humanize.IBytes(uint64(entry.Size)),
			humanize.IBytes(uint64(entry.CompressedSize)),
			entry.Method.String(),
			modified,
			entry.Digest.Short(),
		})
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	header := cell.Bold(true)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "NAME", "SIZE", "PACKED", "METHOD", "MODIFIED", "DIGEST").
		Rows(rows...).
		StyleFunc(func(row, column int) lipgloss.Style {
			style := cell
			if row == table.HeaderRow {
				style = header
			}
			if numericColumns[column] {
				style = style.Align(lipgloss.Right)
			}
			return style
		}).
		String()
}
