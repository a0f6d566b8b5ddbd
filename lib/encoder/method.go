// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encoder

import "fmt"

// Method identifies a compression algorithm. Method values are stored
// in container tables of contents; changing them breaks existing
// archives.
type Method uint8

const (
	// MethodStore keeps the input bytes unchanged.
	MethodStore Method = 0

	// MethodLZ4 is LZ4 block compression.
	MethodLZ4 Method = 1

	// MethodZstd is Zstandard.
	MethodZstd Method = 2

	// MethodBG4LZ4 is ByteGrouping4 followed by LZ4.
	MethodBG4LZ4 Method = 3

	// MethodS2 is S2 block compression.
	MethodS2 Method = 4

	// MethodDeflate is raw DEFLATE.
	MethodDeflate Method = 5
)

var methodNames = map[Method]string{
	MethodStore:   "store",
	MethodLZ4:     "lz4",
	MethodZstd:    "zstd",
	MethodBG4LZ4:  "bg4_lz4",
	MethodS2:      "s2",
	MethodDeflate: "deflate",
}

// String returns the method's name, or "method(N)" for values outside
// the built-in set.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// ParseMethod parses a built-in method name. Registries that carry
// custom codecs resolve names with [Registry.Parse] instead.
func ParseMethod(name string) (Method, error) {
	for method, methodName := range methodNames {
		if methodName == name {
			return method, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for built-in
// method names. This lets YAML configuration name a method directly.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
