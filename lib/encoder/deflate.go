// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encoder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

func deflateCodec() Codec {
	return Codec{
		Name: "deflate",
		NewEncoder: func(level int) (Encoder, error) {
			if err := checkLevel(MethodDeflate, level, flate.BestSpeed, flate.BestCompression); err != nil {
				return nil, err
			}
			if level == 0 {
				level = flate.DefaultCompression
			}
			encoder := &deflateEncoder{}
			writer, err := flate.NewWriter(&encoder.output, level)
			if err != nil {
				return nil, fmt.Errorf("deflate encoder: %w", err)
			}
			encoder.writer = writer
			return encoder, nil
		},
		NewDecoder: func() (Decoder, error) { return deflateDecoder{}, nil },
	}
}

// deflateEncoder streams the input through one long-lived
// flate.Writer, reset per block. Unlike the block codecs it never
// holds the whole input in memory, only the compressed output.
type deflateEncoder struct {
	writer *flate.Writer
	output bytes.Buffer
}

func (e *deflateEncoder) Method() Method { return MethodDeflate }

func (e *deflateEncoder) Encode(src io.Reader) (Block, error) {
	e.output.Reset()
	e.writer.Reset(&e.output)

	read, err := io.Copy(e.writer, src)
	if err != nil {
		return Block{}, fmt.Errorf("reading input: %w", err)
	}
	if err := e.writer.Close(); err != nil {
		return Block{}, fmt.Errorf("deflate compress: %w", err)
	}
	if read == 0 {
		return Block{Method: MethodStore}, nil
	}
	// The input is gone by now, so an incompressible input cannot be
	// stored raw; deflate's stored-block framing bounds the overhead
	// at a few bytes per 64 KiB.
	return Block{Data: bytes.Clone(e.output.Bytes()), Method: MethodDeflate}, nil
}

type deflateDecoder struct{}

func (deflateDecoder) Decode(block []byte, size int64) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrCorrupt, size)
	}
	reader := flate.NewReader(bytes.NewReader(block))
	defer reader.Close()

	result := make([]byte, size)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("%w: deflate decompress: %v", ErrCorrupt, err)
	}
	// The stream must end exactly at size.
	var extra [1]byte
	if n, _ := reader.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("%w: deflate stream longer than %d bytes", ErrCorrupt, size)
	}
	return result, nil
}
