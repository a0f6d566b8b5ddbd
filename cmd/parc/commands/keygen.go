// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/parc/cmd/parc/cli"
	"github.com/bureau-foundation/parc/lib/sealed"
)

func keygenCommand(app *App) *cli.Command {
	var output string

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an identity for sealed archives",
		Description: `Generate an age X25519 keypair. The identity file is written to
--output (mode 0600) and the public key, for use with
"parc create --recipient", is printed.`,
		Usage: "parc keygen -o IDENTITY",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "identity file to create (required)")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return err
			}
			file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				return err
			}
			if _, err := file.WriteString(keypair.IdentityFile()); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintln(app.Stdout, keypair.PublicKey)
			return nil
		},
	}
}
