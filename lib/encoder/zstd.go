// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encoder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// maxZstdDecodedSize bounds the decoder's window so a corrupted frame
// header cannot request an arbitrary allocation.
const maxZstdDecodedSize = 1 << 34

func zstdCodec() Codec {
	return Codec{
		Name: "zstd",
		NewEncoder: func(level int) (Encoder, error) {
			if err := checkLevel(MethodZstd, level, 1, 22); err != nil {
				return nil, err
			}
			speed := zstd.SpeedDefault
			if level != 0 {
				speed = zstd.EncoderLevelFromZstd(level)
			}
			// One goroutine per encoder: the archive pool already
			// runs one encoder per worker, and single-threaded
			// encoding keeps the output independent of scheduling.
			inner, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(speed),
				zstd.WithEncoderConcurrency(1),
			)
			if err != nil {
				return nil, fmt.Errorf("zstd encoder: %w", err)
			}
			return &zstdEncoder{inner: inner}, nil
		},
		NewDecoder: func() (Decoder, error) {
			inner, err := zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(1),
				zstd.WithDecoderMaxMemory(maxZstdDecodedSize),
			)
			if err != nil {
				return nil, fmt.Errorf("zstd decoder: %w", err)
			}
			return &zstdDecoder{inner: inner}, nil
		},
	}
}

type zstdEncoder struct {
	inner   *zstd.Encoder
	input   inputBuffer
	scratch []byte
}

func (e *zstdEncoder) Method() Method { return MethodZstd }

func (e *zstdEncoder) Encode(src io.Reader) (Block, error) {
	data, err := e.input.fill(src)
	if err != nil {
		return Block{}, fmt.Errorf("reading input: %w", err)
	}
	if len(data) == 0 {
		return Block{Method: MethodStore}, nil
	}

	e.scratch = e.inner.EncodeAll(data, e.scratch[:0])
	if len(e.scratch) >= len(data) {
		return storedBlock(data), nil
	}
	return Block{Data: bytes.Clone(e.scratch), Method: MethodZstd}, nil
}

type zstdDecoder struct {
	inner *zstd.Decoder
}

func (d *zstdDecoder) Decode(block []byte, size int64) ([]byte, error) {
	if size < 0 || size > maxZstdDecodedSize {
		return nil, fmt.Errorf("%w: zstd block size %d out of range", ErrCorrupt, size)
	}
	result, err := d.inner.DecodeAll(block, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decompress: %v", ErrCorrupt, err)
	}
	if int64(len(result)) != size {
		return nil, fmt.Errorf("%w: zstd produced %d bytes, expected %d", ErrCorrupt, len(result), size)
	}
	return result, nil
}
