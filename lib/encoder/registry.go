// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package encoder

import (
	"fmt"
	"slices"
	"sync"
)

// Codec describes how to build encoders and decoders for one method.
type Codec struct {
	// Name is the user-facing method name ("zstd", "lz4", ...).
	Name string

	// NewEncoder builds an encoder at the given level. Level 0 means
	// the codec's default. Unsupported levels return an error
	// wrapping [ErrInvalidLevel].
	NewEncoder func(level int) (Encoder, error)

	// NewDecoder builds a decoder. Decoders, like encoders, are not
	// required to be safe for concurrent use.
	NewDecoder func() (Decoder, error)
}

// Registry maps methods to codecs. It is safe for concurrent use; the
// encoders it builds are not.
type Registry struct {
	mu     sync.RWMutex
	codecs map[Method]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[Method]Codec)}
}

// NewDefaultRegistry returns a new registry holding every built-in
// codec. Each call returns an independent registry.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(MethodStore, storeCodec())
	registry.Register(MethodLZ4, lz4Codec())
	registry.Register(MethodZstd, zstdCodec())
	registry.Register(MethodBG4LZ4, bg4Codec())
	registry.Register(MethodS2, s2Codec())
	registry.Register(MethodDeflate, deflateCodec())
	return registry
}

// Register adds or replaces the codec for method.
func (r *Registry) Register(method Method, codec Codec) {
	if codec.NewEncoder == nil || codec.NewDecoder == nil {
		panic(fmt.Sprintf("encoder: codec for %s is missing a constructor", method))
	}
	if codec.Name == "" {
		codec.Name = method.String()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[method] = codec
}

// Lookup returns the codec registered for method.
func (r *Registry) Lookup(method Method) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codec, ok := r.codecs[method]
	return codec, ok
}

// Parse resolves a method name against the registered codecs.
func (r *Registry) Parse(name string) (Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for method, codec := range r.codecs {
		if codec.Name == name {
			return method, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Name returns the registered name for method, falling back to
// Method.String.
func (r *Registry) Name(method Method) string {
	if codec, ok := r.Lookup(method); ok {
		return codec.Name
	}
	return method.String()
}

// Methods returns the registered methods in ascending order.
func (r *Registry) Methods() []Method {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := make([]Method, 0, len(r.codecs))
	for method := range r.codecs {
		methods = append(methods, method)
	}
	slices.Sort(methods)
	return methods
}

// NewEncoder builds an encoder for method at level.
func (r *Registry) NewEncoder(method Method, level int) (Encoder, error) {
	codec, ok := r.Lookup(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	encoder, err := codec.NewEncoder(level)
	if err != nil {
		return nil, fmt.Errorf("creating %s encoder: %w", codec.Name, err)
	}
	return encoder, nil
}

// NewDecoder builds a decoder for method.
func (r *Registry) NewDecoder(method Method) (Decoder, error) {
	codec, ok := r.Lookup(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	decoder, err := codec.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("creating %s decoder: %w", codec.Name, err)
	}
	return decoder, nil
}

// checkLevel returns an ErrInvalidLevel error unless level is 0 or
// within [low, high].
func checkLevel(method Method, level, low, high int) error {
	if level == 0 || (level >= low && level <= high) {
		return nil
	}
	return fmt.Errorf("%w: %s accepts %d-%d, got %d", ErrInvalidLevel, method, low, high, level)
}
