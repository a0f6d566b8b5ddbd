// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encoder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
)

func s2Codec() Codec {
	return Codec{
		Name: "s2",
		NewEncoder: func(level int) (Encoder, error) {
			if err := checkLevel(MethodS2, level, 1, 3); err != nil {
				return nil, err
			}
			return &s2Encoder{level: max(level, 1)}, nil
		},
		NewDecoder: func() (Decoder, error) { return s2Decoder{}, nil },
	}
}

type s2Encoder struct {
	level   int
	input   inputBuffer
	scratch []byte
}

func (e *s2Encoder) Method() Method { return MethodS2 }

func (e *s2Encoder) Encode(src io.Reader) (Block, error) {
	data, err := e.input.fill(src)
	if err != nil {
		return Block{}, fmt.Errorf("reading input: %w", err)
	}
	if len(data) == 0 {
		return Block{Method: MethodStore}, nil
	}

	bound := s2.MaxEncodedLen(len(data))
	if bound < 0 {
		return Block{}, fmt.Errorf("%w: %d bytes exceeds the s2 block limit", ErrTooLarge, len(data))
	}
	if cap(e.scratch) < bound {
		e.scratch = make([]byte, bound)
	}

	var encoded []byte
	switch e.level {
	case 1:
		encoded = s2.Encode(e.scratch[:bound], data)
	case 2:
		encoded = s2.EncodeBetter(e.scratch[:bound], data)
	default:
		encoded = s2.EncodeBest(e.scratch[:bound], data)
	}
	if len(encoded) >= len(data) {
		return storedBlock(data), nil
	}
	return Block{Data: bytes.Clone(encoded), Method: MethodS2}, nil
}

type s2Decoder struct{}

func (s2Decoder) Decode(block []byte, size int64) ([]byte, error) {
	decodedLength, err := s2.DecodedLen(block)
	if err != nil {
		return nil, fmt.Errorf("%w: s2 header: %v", ErrCorrupt, err)
	}
	if int64(decodedLength) != size {
		return nil, fmt.Errorf("%w: s2 block declares %d bytes, expected %d", ErrCorrupt, decodedLength, size)
	}
	result, err := s2.Decode(make([]byte, decodedLength), block)
	if err != nil {
		return nil, fmt.Errorf("%w: s2 decompress: %v", ErrCorrupt, err)
	}
	return result, nil
}
