// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// header is the first line of every age file.
const header = "age-encryption.org/v1\n"

// Keypair holds an age x25519 keypair.
type Keypair struct {
	// PrivateKey is the identity in AGE-SECRET-KEY-1... format.
	PrivateKey string

	// PublicKey is the recipient in age1... format. Safe to publish.
	PublicKey string
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}
	return &Keypair{
		PrivateKey: identity.String(),
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// IdentityFile renders the keypair in the format read by Decrypt and
// by the age command line tool.
func (k *Keypair) IdentityFile() string {
	return "# public key: " + k.PublicKey + "\n" + k.PrivateKey + "\n"
}

// Encrypt returns a writer that encrypts everything written to it to
// the given recipients (age1... public keys) and writes the
// ciphertext to w. The caller must Close the writer to flush the
// final chunk; closing does not close w.
func Encrypt(w io.Writer, recipientKeys []string) (io.WriteCloser, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	writer, err := age.Encrypt(w, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	return writer, nil
}

// Decrypt returns a reader of the plaintext of the age file in r,
// using the identities in identityFile (one AGE-SECRET-KEY-1... per
// line, # comments allowed).
func Decrypt(r io.Reader, identityFile io.Reader) (io.Reader, error) {
	identities, err := age.ParseIdentities(identityFile)
	if err != nil {
		return nil, fmt.Errorf("parsing identities: %w", err)
	}
	reader, err := age.Decrypt(r, identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return reader, nil
}

// DecryptAll decrypts the age file in r into memory.
func DecryptAll(r io.Reader, identityFile io.Reader) ([]byte, error) {
	reader, err := Decrypt(r, identityFile)
	if err != nil {
		return nil, err
	}
	var plaintext bytes.Buffer
	if _, err := plaintext.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext.Bytes(), nil
}

// IsSealed reports whether r starts with an age header. It reads at
// most len(header) bytes.
func IsSealed(r io.Reader) bool {
	prefix := make([]byte, len(header))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return false
	}
	return string(prefix) == header
}

// ParsePublicKey validates an age public key string.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}
