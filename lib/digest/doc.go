// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes the BLAKE3 digests recorded in parc
// containers.
//
// Two domains exist. Entry digests cover the uncompressed bytes of one
// input and let extraction verify that decompression reproduced the
// original content. Container checksums cover every byte of a
// container that precedes the footer. Each domain uses BLAKE3 keyed
// mode with its own fixed key, so an entry digest can never be
// mistaken for a container checksum even over identical bytes.
package digest
