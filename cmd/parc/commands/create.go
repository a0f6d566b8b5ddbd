// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/parc/cmd/parc/cli"
	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/config"
	"github.com/bureau-foundation/parc/lib/container"
	"github.com/bureau-foundation/parc/lib/process"
	"github.com/bureau-foundation/parc/lib/sealed"
	"github.com/bureau-foundation/parc/lib/source"
)

// Exit codes for create beyond the default 1.
const exitPartial = 2

type createParams struct {
	Output     string
	ConfigPath string
	Threads    string
	Method     string
	Level      int
	LookAhead  int
	MaxJobSize string
	Recipients []string
}

func createCommand(app *App) *cli.Command {
	var params createParams
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "create",
		Summary: "Compress files into an archive",
		Description: `Compress every regular file under the given paths into one archive.

Inputs are compressed in parallel and written in input order: the
order of the paths on the command line, then lexical order within each
directory. An input that cannot be read or compressed is reported and
skipped; the archive holds the rest and the command exits with status 2.
If no input can be compressed, no archive is written.

Flags override the configuration file.`,
		Usage: "parc create -o ARCHIVE [flags] PATH...",
		Examples: []cli.Example{
			{
				Description: "Archive a directory with one worker per CPU",
				Command:     "parc create -o logs.parc /var/log/app",
			},
			{
				Description: "Use 8 workers and fast compression",
				Command:     "parc create -o build.parc --threads 8 --method lz4 out/",
			},
			{
				Description: "Seal the archive to a recipient",
				Command:     "parc create -o secrets.parc --recipient age1... config/",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("create", pflag.ContinueOnError)
			flagSet.StringVarP(&params.Output, "output", "o", "", "archive to write (required)")
			configFlag(flagSet, &params.ConfigPath)
			flagSet.StringVar(&params.Threads, "threads", "auto", "worker count, or auto for one per CPU")
			flagSet.StringVar(&params.Method, "method", "zstd", "compression method (zstd, lz4, bg4_lz4, s2, deflate, store)")
			flagSet.IntVar(&params.Level, "level", 0, "compression level (0 selects the method default)")
			flagSet.IntVar(&params.LookAhead, "look-ahead", 0, "inputs to prefetch ahead of the workers (0 selects twice the worker count)")
			flagSet.StringVar(&params.MaxJobSize, "max-job-size", "0", "largest single input, e.g. 512MiB (0 for no limit)")
			flagSet.StringArrayVar(&params.Recipients, "recipient", nil, "seal the archive to this age public key (repeatable)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one input path is required")
			}
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}
			cfg, err := app.loadConfig(params.ConfigPath)
			if err != nil {
				return err
			}
			if err := params.apply(flagSet, cfg); err != nil {
				return err
			}
			return runCreate(ctx, app, cfg, params.Output, args, logger)
		},
	}
}

// apply copies explicitly set flags over cfg and revalidates it.
func (p *createParams) apply(flagSet *pflag.FlagSet, cfg *config.Config) error {
	if flagSet.Changed("threads") {
		threads, err := config.ParseThreadCount(p.Threads)
		if err != nil {
			return fmt.Errorf("--threads: %w", err)
		}
		cfg.Threads = threads
	}
	if flagSet.Changed("method") {
		cfg.Method = p.Method
	}
	if flagSet.Changed("level") {
		cfg.Level = p.Level
	}
	if flagSet.Changed("look-ahead") {
		cfg.LookAhead = p.LookAhead
	}
	if flagSet.Changed("max-job-size") {
		size, err := config.ParseByteSize(p.MaxJobSize)
		if err != nil {
			return fmt.Errorf("--max-job-size: %w", err)
		}
		cfg.MaxJobSize = size
	}
	if flagSet.Changed("recipient") {
		cfg.Recipients = p.Recipients
	}
	return cfg.Validate()
}

func runCreate(ctx context.Context, app *App, cfg *config.Config, output string, paths []string, logger *slog.Logger) error {
	method, err := app.Registry.Parse(cfg.Method)
	if err != nil {
		return err
	}
	descriptors, err := source.Walk(paths...)
	if err != nil {
		return err
	}
	if len(descriptors) == 0 {
		return fmt.Errorf("no regular files under %v", paths)
	}

	coordinator, err := archive.NewCoordinator(archive.CoordinatorConfig{
		Registry: app.Registry,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	out, err := newArchiveFile(output, cfg.Recipients)
	if err != nil {
		return err
	}
	defer out.discard()

	result, err := coordinator.CompressAll(ctx, descriptors, archive.Config{
		Threads:    int(cfg.Threads),
		Method:     method,
		Level:      cfg.Level,
		Prefetcher: archive.WindowPrefetcher(descriptors),
		LookAhead:  cfg.LookAhead,
		Observer:   newProgressPrinter(app.Progress),
		MaxJobSize: int64(cfg.MaxJobSize),
	}, out.container)
	if result != nil {
		printFailures(app.Stdout, result)
	}
	if err != nil {
		if errors.Is(err, archive.ErrAllFailed) {
			return fmt.Errorf("no archive written: %w", err)
		}
		return err
	}
	if err := out.commit(); err != nil {
		return err
	}

	var inputSize int64
	for _, outcome := range result.Succeeded() {
		inputSize += outcome.InputSize
	}
	fmt.Fprintf(app.Stdout, "%s: %d entries, %s -> %s, %d threads\n",
		output, len(result.Entries), humanize.IBytes(uint64(inputSize)),
		humanize.IBytes(uint64(result.PayloadSize)), result.Threads)
	logger.Info("archive created",
		"path", output,
		"batch", result.BatchID,
		"verdict", result.Verdict.String(),
		"entries", len(result.Entries),
		"checksum", out.container.Checksum().Short(),
	)

	if result.Verdict == archive.PartialSuccess {
		return &process.ExitError{
			Code: exitPartial,
			Err:  fmt.Errorf("%d of %d inputs failed", len(result.Failed()), len(result.Outcomes)),
		}
	}
	return nil
}

func printFailures(w io.Writer, result *archive.ExecutionResult) {
	for _, outcome := range result.Failed() {
		fmt.Fprintf(w, "failed: %v\n", outcome.Err)
	}
}

// archiveFile writes an archive to a temporary file next to its
// destination and renames it into place on commit. Layers, outermost
// first: container, optional age sealing, buffering, file.
type archiveFile struct {
	path      string
	file      *os.File
	buffer    *bufio.Writer
	seal      io.WriteCloser
	container *container.Writer
	committed bool
}

func newArchiveFile(path string, recipients []string) (*archiveFile, error) {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, err
	}
	out := &archiveFile{path: path, file: file, buffer: bufio.NewWriterSize(file, 1<<20)}
	var sink io.Writer = out.buffer
	if len(recipients) > 0 {
		out.seal, err = sealed.Encrypt(out.buffer, recipients)
		if err != nil {
			out.discard()
			return nil, err
		}
		sink = out.seal
	}
	out.container = container.NewWriter(sink)
	return out, nil
}

func (a *archiveFile) commit() error {
	if a.seal != nil {
		if err := a.seal.Close(); err != nil {
			return fmt.Errorf("sealing archive: %w", err)
		}
	}
	if err := a.buffer.Flush(); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := a.file.Chmod(0o644); err != nil {
		return err
	}
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := os.Rename(a.file.Name(), a.path); err != nil {
		return err
	}
	a.committed = true
	return nil
}

// discard removes the temporary file unless commit succeeded.
func (a *archiveFile) discard() {
	if a.committed {
		return
	}
	a.file.Close()
	os.Remove(a.file.Name())
}
