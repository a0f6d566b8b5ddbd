// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encoder

import (
	"bytes"
	"errors"
	"io"
)

var (
	// ErrUnknownMethod is returned when a method has no registered
	// codec.
	ErrUnknownMethod = errors.New("unknown compression method")

	// ErrInvalidLevel is returned when a codec rejects the requested
	// compression level.
	ErrInvalidLevel = errors.New("invalid compression level")

	// ErrTooLarge is returned when an input exceeds what a codec can
	// hold in a single block, or when a buffer could not be grown.
	// The archive worker reports it as an out-of-memory failure.
	ErrTooLarge = errors.New("input too large for codec")

	// ErrCorrupt is returned by decoders when a block does not decode
	// to the expected size.
	ErrCorrupt = errors.New("corrupt block")
)

// Block is one compressed input.
type Block struct {
	// Data is the encoded bytes. The slice is owned by the caller;
	// encoders never reuse it.
	Data []byte

	// Method is the method that produced Data. It differs from the
	// encoder's configured method when the input was incompressible
	// and was stored instead.
	Method Method
}

// Encoder compresses one input at a time. Implementations keep
// scratch state between calls and are not safe for concurrent use.
type Encoder interface {
	// Method returns the configured method.
	Method() Method

	// Encode reads src to EOF and returns the encoded block. Errors
	// from src are returned wrapped so that callers can distinguish
	// read failures from codec failures.
	Encode(src io.Reader) (Block, error)
}

// Decoder reverses an Encoder. Decode returns exactly size bytes or
// an error wrapping [ErrCorrupt].
type Decoder interface {
	Decode(block []byte, size int64) ([]byte, error)
}

// inputBuffer is the reusable read buffer embedded in block codecs.
type inputBuffer struct {
	buffer bytes.Buffer
}

// fill reads src to EOF into the reusable buffer and returns its
// contents. The returned slice is only valid until the next fill.
func (b *inputBuffer) fill(src io.Reader) (data []byte, err error) {
	b.buffer.Reset()
	defer func() {
		// bytes.Buffer panics when it cannot grow; surface that as
		// an ordinary error so one oversized input fails one job.
		if recovered := recover(); recovered != nil {
			if recovered == bytes.ErrTooLarge {
				data, err = nil, ErrTooLarge
				return
			}
			panic(recovered)
		}
	}()
	if _, err := b.buffer.ReadFrom(src); err != nil {
		return nil, err
	}
	return b.buffer.Bytes(), nil
}

// storedBlock returns a copy of data as a store block.
func storedBlock(data []byte) Block {
	return Block{Data: bytes.Clone(data), Method: MethodStore}
}
