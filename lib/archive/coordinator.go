// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/parc/lib/clock"
	"github.com/bureau-foundation/parc/lib/encoder"
)

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	// Registry provides the codecs. Required.
	Registry *encoder.Registry

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to a logger that discards everything.
	Logger *slog.Logger
}

// Coordinator is the entry point for compressing a batch into an
// archive. A Coordinator holds no per-batch state and may run
// several batches concurrently.
type Coordinator struct {
	registry  *encoder.Registry
	clock     clock.Clock
	logger    *slog.Logger
	assembler *Assembler
}

// NewCoordinator returns a coordinator for config.
func NewCoordinator(config CoordinatorConfig) (*Coordinator, error) {
	if config.Registry == nil {
		return nil, errors.New("archive: CoordinatorConfig.Registry is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		registry:  config.Registry,
		clock:     config.Clock,
		logger:    config.Logger,
		assembler: NewAssembler(config.Logger),
	}, nil
}

// CompressAll compresses items and writes the archive to sink.
//
// Configuration problems (an empty batch, an invalid descriptor, a
// bad thread count, an unknown method or level) return a
// *ConfigError before any job runs and before anything is written.
//
// Otherwise every item is attempted. The result lists one outcome
// per item in index order. If any item completed, the completed
// blocks are written to sink in index order, sink.Finish is called
// with the entry table, and the error is nil even when some items
// failed (the verdict is then PartialSuccess). If no item completed,
// nothing is written and the error wraps ErrAllFailed.
func (c *Coordinator) CompressAll(ctx context.Context, items []*Descriptor, config Config, sink ContainerWriter) (*ExecutionResult, error) {
	if err := validateDescriptors(items); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, configErrorf("sink", nil, "a container writer is required")
	}
	if _, ok := c.registry.Lookup(config.Method); !ok {
		return nil, configErrorf("method", encoder.ErrUnknownMethod, "%s is not registered", config.Method)
	}

	pool, err := NewWorkerPool(PoolConfig{
		Registry:   c.registry,
		Method:     config.Method,
		Level:      config.Level,
		Clock:      c.clock,
		Logger:     c.logger,
		Observer:   config.Observer,
		Prefetcher: config.Prefetcher,
		LookAhead:  config.LookAhead,
		MaxJobSize: config.MaxJobSize,
	})
	if err != nil {
		return nil, err
	}
	result, err := pool.Run(ctx, items, config.Threads)
	if err != nil {
		return nil, err
	}
	defer result.release()

	if result.Verdict == AllFailed {
		return result, fmt.Errorf("%w: %d of %d", ErrAllFailed, len(result.Outcomes), len(items))
	}

	entries, payloadSize, err := c.assembler.Assemble(result.completedJobs(), sink)
	if err != nil {
		return result, fmt.Errorf("assembling archive: %w", err)
	}
	if err := sink.Finish(entries); err != nil {
		return result, fmt.Errorf("finishing archive: %w", err)
	}
	result.Entries = entries
	result.PayloadSize = payloadSize
	return result, nil
}
