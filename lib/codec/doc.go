// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by
// parc's on-disk structures.
//
// The container table of contents is the main consumer: it is stored
// as a single CBOR item between the payload and the footer, and its
// bytes are covered by the container checksum. That only works if
// the same logical table always encodes to the same bytes, so the
// encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Struct types use `cbor` tags. Unknown fields are ignored on decode
// so that newer writers can add fields without breaking older
// readers.
package codec
