// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a job (or a batch) failed.
type ErrorKind int

const (
	// SourceReadError means the input's byte source failed, or
	// produced a different number of bytes than declared.
	SourceReadError ErrorKind = iota + 1

	// EncoderError means the compression codec rejected the input or
	// failed internally.
	EncoderError

	// OutOfMemory means the job's working buffers could not be
	// allocated, or the input exceeded the configured per-job limit.
	OutOfMemory

	// ConfigurationError means the batch itself is invalid. It is
	// reported before any job runs.
	ConfigurationError

	// Cancelled means the batch context was cancelled before the job
	// could finish.
	Cancelled
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case SourceReadError:
		return "source_read_error"
	case EncoderError:
		return "encoder_error"
	case OutOfMemory:
		return "out_of_memory"
	case ConfigurationError:
		return "configuration_error"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

var (
	// ErrConfiguration matches every *ConfigError via errors.Is.
	ErrConfiguration = errors.New("invalid archive configuration")

	// ErrAllFailed is returned by Coordinator.CompressAll when no job
	// completed. No archive is written.
	ErrAllFailed = errors.New("all jobs failed")

	// ErrQueueClosed is returned by JobQueue.Push after Close.
	ErrQueueClosed = errors.New("job queue is closed")

	// ErrSizeMismatch is wrapped by source read failures where the
	// source produced a different byte count than the descriptor
	// declared.
	ErrSizeMismatch = errors.New("source size does not match declared size")

	// ErrJobTooLarge is wrapped by out-of-memory failures caused by
	// the per-job size limit.
	ErrJobTooLarge = errors.New("input exceeds the per-job size limit")
)

// ConfigError reports an invalid batch or configuration.
type ConfigError struct {
	// Field names the offending setting or input ("threads",
	// "items[3].size", ...).
	Field string

	// Reason describes the problem.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// Kind returns ConfigurationError.
func (e *ConfigError) Kind() ErrorKind { return ConfigurationError }

func configErrorf(field string, cause error, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...), Err: cause}
}

// JobError is the failure recorded on one job.
type JobError struct {
	// Index is the descriptor's original index.
	Index int

	// Name is the descriptor's display name.
	Name string

	// Kind classifies the failure.
	Kind ErrorKind

	// Err is the underlying cause.
	Err error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %d (%s): %s: %v", e.Index, e.Name, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *JobError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind carried by err, or 0 if err carries
// none.
func KindOf(err error) ErrorKind {
	var jobError *JobError
	if errors.As(err, &jobError) {
		return jobError.Kind
	}
	var configError *ConfigError
	if errors.As(err, &configError) {
		return ConfigurationError
	}
	return 0
}
