// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package keyhash computes the comparable public-key hash used for public-key
// pinning. The key's raw bytes are prefixed with a fixed RSA-2048
// SubjectPublicKeyInfo header, hashed with SHA-256 and base64 encoded.
package keyhash

import "errors"

var (
	// ErrKeyExtraction is returned when the raw key bytes cannot be read from
	// a certificate or public key.
	ErrKeyExtraction = errors.New("keyhash: key extraction failed")

	// ErrNilCertificate is returned when a nil certificate is provided.
	ErrNilCertificate = errors.New("keyhash: nil certificate")
)
