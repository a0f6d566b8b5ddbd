// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encoder

import (
	"bytes"
	"fmt"
	"io"
)

func storeCodec() Codec {
	return Codec{
		Name: "store",
		NewEncoder: func(level int) (Encoder, error) {
			if level != 0 {
				return nil, fmt.Errorf("%w: store has no levels, got %d", ErrInvalidLevel, level)
			}
			return &storeEncoder{}, nil
		},
		NewDecoder: func() (Decoder, error) { return storeDecoder{}, nil },
	}
}

type storeEncoder struct{}

func (*storeEncoder) Method() Method { return MethodStore }

func (*storeEncoder) Encode(src io.Reader) (Block, error) {
	var buffer bytes.Buffer
	if _, err := buffer.ReadFrom(src); err != nil {
		return Block{}, fmt.Errorf("reading input: %w", err)
	}
	return Block{Data: buffer.Bytes(), Method: MethodStore}, nil
}

type storeDecoder struct{}

func (storeDecoder) Decode(block []byte, size int64) ([]byte, error) {
	if int64(len(block)) != size {
		return nil, fmt.Errorf("%w: stored block is %d bytes, expected %d", ErrCorrupt, len(block), size)
	}
	return block, nil
}
