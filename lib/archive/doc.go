// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive is parc's parallel compression engine. It turns an
// ordered list of inputs into one ordered payload of compressed
// blocks plus the table of entries a container writer needs to finish
// the file.
//
// The pipeline, leaf first:
//
//   - [Descriptor]: one input as supplied by the caller (index, name,
//     declared size, attributes, byte [Source]).
//   - [Job]: the run state of one descriptor. A job moves
//     Pending → Assigned → Running → Completed|Failed. Only the
//     worker that took a job from the queue mutates it after
//     assignment.
//   - [JobQueue]: the only structure shared by workers. Taking a job
//     removes it and marks it Assigned under one lock, so no job is
//     ever handed out twice.
//   - worker: owns one encoder for its whole lifetime, drains the
//     queue, and records each outcome on the job. A failed job never
//     stops the worker.
//   - [WorkerPool]: builds the jobs, starts the workers, and does all
//     bookkeeping on the calling goroutine: progress [Observer] calls
//     and look-ahead [Prefetcher] triggers happen there, never inside
//     a worker.
//   - [Coordinator]: validates the batch, resolves the thread count,
//     runs the pool, orders the results by original index, decides
//     the [Verdict], and hands completed jobs to the [Assembler].
//   - [Assembler]: streams blocks to the [ContainerWriter] in index
//     order and produces the [Entry] table.
//
// Output bytes depend only on the input order and the codec, never
// on the thread count or on which worker finished first. With one
// worker the pool runs jobs on the calling goroutine; that path
// produces the same result as the parallel one.
//
// Failures are per job. A job fails with a [JobError] whose [ErrorKind]
// says why (source read, encoder, out of memory, cancelled); its
// siblings are unaffected. If at least one job completed, an archive
// is produced from the completed jobs and the result verdict is
// PartialSuccess. If none completed, [ErrAllFailed] is returned and
// nothing is written. Configuration problems are reported as
// [*ConfigError] before any job runs.
package archive
