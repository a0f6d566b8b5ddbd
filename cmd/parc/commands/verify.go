// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/parc/cmd/parc/cli"
	"github.com/bureau-foundation/parc/lib/process"
)

func verifyCommand(app *App) *cli.Command {
	var params readParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check an archive's checksum and entry digests",
		Description: `Recompute the container checksum, then decompress every entry and
compare it with its recorded digest. Exits with status 1 if anything
does not match.`,
		Usage: "parc verify [flags] ARCHIVE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			params.bind(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
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

			if err := reader.Verify(); err != nil {
				return &process.ExitError{Code: 1, Err: err}
			}
			entries := reader.Entries()
			failed := 0
			for _, entry := range entries {
				if _, err := reader.Extract(entry, app.Registry); err != nil {
					fmt.Fprintf(app.Stdout, "FAIL %s: %v\n", entry.Name, err)
					failed++
					continue
				}
				logger.Debug("verified", "name", entry.Name, "digest", entry.Digest.Short())
			}
			if failed > 0 {
				return &process.ExitError{
					Code: 1,
					Err:  fmt.Errorf("%d of %d entries failed verification", failed, len(entries)),
				}
			}
			fmt.Fprintf(app.Stdout, "ok: %d entries, checksum %s\n", len(entries), reader.Checksum().Short())
			return nil
		},
	}
}
