// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

// Size is the byte length of a Digest.
const Size = 32

// Digest is a 32-byte BLAKE3 keyed hash.
type Digest [Size]byte

// domainKey is the 32-byte key for BLAKE3 keyed hashing. The bytes are
// the ASCII domain name, zero-padded. These are format constants:
// changing one invalidates every digest already written in that
// domain.
type domainKey [32]byte

var (
	entryDomainKey = domainKey{
		'p', 'a', 'r', 'c', '.', 'e', 'n', 't', 'r', 'y',
	}

	containerDomainKey = domainKey{
		'p', 'a', 'r', 'c', '.', 'c', 'o', 'n', 't', 'a', 'i', 'n', 'e', 'r',
	}
)

// NewEntryHasher returns a hasher for the entry domain. Feed it the
// uncompressed input bytes and convert the sum with [FromSum].
func NewEntryHasher() hash.Hash {
	return newKeyed(entryDomainKey)
}

// NewContainerHasher returns a hasher for the container domain.
func NewContainerHasher() hash.Hash {
	return newKeyed(containerDomainKey)
}

// Entry returns the entry-domain digest of data.
func Entry(data []byte) Digest {
	hasher := NewEntryHasher()
	hasher.Write(data)
	return FromSum(hasher)
}

// FromSum finalizes hasher into a Digest. The hasher must produce a
// 32-byte sum.
func FromSum(hasher hash.Hash) Digest {
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// IsZero reports whether d is the zero value (no digest recorded).
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String returns the hex encoding of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, for listings and logs.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:6])
}

// Parse parses a 64-character hex string into a Digest.
func Parse(text string) (Digest, error) {
	var d Digest
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return d, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != Size {
		return d, fmt.Errorf("digest is %d bytes, want %d", len(decoded), Size)
	}
	copy(d[:], decoded)
	return d, nil
}

func newKeyed(key domainKey) hash.Hash {
	// NewKeyed only fails for keys that are not 32 bytes, which the
	// domainKey type rules out.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}
