// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encoder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// maxLZ4Input is the largest input an LZ4 block can describe.
const maxLZ4Input = 0x7E000000

func lz4Codec() Codec {
	return Codec{
		Name: "lz4",
		NewEncoder: func(level int) (Encoder, error) {
			return newLZ4Encoder(MethodLZ4, level, false)
		},
		NewDecoder: func() (Decoder, error) { return lz4Decoder{transposed: false}, nil },
	}
}

func bg4Codec() Codec {
	return Codec{
		Name: "bg4_lz4",
		NewEncoder: func(level int) (Encoder, error) {
			if level != 0 {
				return nil, fmt.Errorf("%w: bg4_lz4 has no levels, got %d", ErrInvalidLevel, level)
			}
			return newLZ4Encoder(MethodBG4LZ4, 0, true)
		},
		NewDecoder: func() (Decoder, error) { return lz4Decoder{transposed: true}, nil },
	}
}

// blockCompressor is satisfied by both lz4.Compressor and
// lz4.CompressorHC.
type blockCompressor interface {
	CompressBlock(src, dst []byte) (int, error)
}

type lz4Encoder struct {
	method     Method
	compressor blockCompressor
	transposed bool
	input      inputBuffer
	scratch    []byte
	grouped    []byte
}

func newLZ4Encoder(method Method, level int, transposed bool) (*lz4Encoder, error) {
	if err := checkLevel(method, level, 1, 9); err != nil {
		return nil, err
	}
	encoder := &lz4Encoder{method: method, transposed: transposed}
	if level == 0 {
		encoder.compressor = &lz4.Compressor{}
	} else {
		// lz4.Level1..Level9 are 1<<9 .. 1<<17.
		encoder.compressor = &lz4.CompressorHC{Level: lz4.CompressionLevel(1 << (8 + level))}
	}
	return encoder, nil
}

func (e *lz4Encoder) Method() Method { return e.method }

func (e *lz4Encoder) Encode(src io.Reader) (Block, error) {
	data, err := e.input.fill(src)
	if err != nil {
		return Block{}, fmt.Errorf("reading input: %w", err)
	}
	if len(data) == 0 {
		return Block{Method: MethodStore}, nil
	}
	if len(data) > maxLZ4Input {
		return Block{}, fmt.Errorf("%w: %d bytes exceeds the lz4 block limit", ErrTooLarge, len(data))
	}

	payload := data
	if e.transposed {
		e.grouped = bg4Transpose(e.grouped, data)
		payload = e.grouped
	}

	bound := lz4.CompressBlockBound(len(payload))
	if cap(e.scratch) < bound {
		e.scratch = make([]byte, bound)
	}
	e.scratch = e.scratch[:bound]

	written, err := e.compressor.CompressBlock(payload, e.scratch)
	if err != nil {
		return Block{}, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return storedBlock(data), nil
	}
	return Block{Data: bytes.Clone(e.scratch[:written]), Method: e.method}, nil
}

type lz4Decoder struct {
	transposed bool
}

func (d lz4Decoder) Decode(block []byte, size int64) ([]byte, error) {
	if size < 0 || size > maxLZ4Input {
		return nil, fmt.Errorf("%w: lz4 block size %d out of range", ErrCorrupt, size)
	}
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(block, destination)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 decompress: %v", ErrCorrupt, err)
	}
	if int64(read) != size {
		return nil, fmt.Errorf("%w: lz4 produced %d bytes, expected %d", ErrCorrupt, read, size)
	}
	if d.transposed {
		return bg4Untranspose(destination), nil
	}
	return destination, nil
}

// bg4Transpose writes data into dst (reallocating as needed) so that
// byte 0 of every 4-byte group comes first, then every byte 1, and so
// on. Trailing bytes that do not fill a group are appended unchanged.
func bg4Transpose(dst, data []byte) []byte {
	length := len(data)
	groupCount := length / 4

	if cap(dst) < length {
		dst = make([]byte, length)
	}
	dst = dst[:length]

	for i := 0; i < groupCount; i++ {
		dst[i] = data[i*4]
		dst[groupCount+i] = data[i*4+1]
		dst[groupCount*2+i] = data[i*4+2]
		dst[groupCount*3+i] = data[i*4+3]
	}
	copy(dst[groupCount*4:], data[groupCount*4:])
	return dst
}

// bg4Untranspose reverses bg4Transpose.
func bg4Untranspose(data []byte) []byte {
	length := len(data)
	groupCount := length / 4
	output := make([]byte, length)

	for i := 0; i < groupCount; i++ {
		output[i*4] = data[i]
		output[i*4+1] = data[groupCount+i]
		output[i*4+2] = data[groupCount*2+i]
		output[i*4+3] = data[groupCount*3+i]
	}
	copy(output[groupCount*4:], data[groupCount*4:])
	return output
}
