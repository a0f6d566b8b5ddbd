// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption for parc archives. It wraps
// filippo.io/age for the operations the CLI needs: generate an x25519
// keypair, stream a container through an encryptor addressed to one
// or more recipients, and decrypt it again with an identity file.
//
// Encryption wraps the whole container stream, including the table of
// contents, so a sealed archive reveals nothing but its approximate
// size. The container format itself knows nothing about sealing.
package sealed
