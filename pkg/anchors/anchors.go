// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package anchors

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// ReferenceAnchors is the immutable pair of pinning references. The zero
// value matches nothing.
type ReferenceAnchors struct {
	certificate   []byte
	publicKeyHash string
}

// NewReferenceAnchors validates and copies the reference certificate bytes
// and public-key hash. The hash must be the base64 encoding of a SHA-256
// digest.
func NewReferenceAnchors(certificate []byte, publicKeyHash string) (ReferenceAnchors, error) {
	if len(certificate) == 0 {
		return ReferenceAnchors{}, fmt.Errorf("%w: empty reference certificate", ErrConfiguration)
	}
	if err := validateHash(publicKeyHash); err != nil {
		return ReferenceAnchors{}, err
	}
	cert := make([]byte, len(certificate))
	copy(cert, certificate)
	return ReferenceAnchors{certificate: cert, publicKeyHash: publicKeyHash}, nil
}

// Certificate returns a copy of the reference certificate bytes.
func (a ReferenceAnchors) Certificate() []byte {
	out := make([]byte, len(a.certificate))
	copy(out, a.certificate)
	return out
}

// PublicKeyHash returns the reference public-key hash.
func (a ReferenceAnchors) PublicKeyHash() string {
	return a.publicKeyHash
}

// MatchesCertificate reports whether raw is byte-identical to the reference
// certificate, in constant time.
func (a ReferenceAnchors) MatchesCertificate(raw []byte) bool {
	if len(a.certificate) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(raw, a.certificate) == 1
}

// MatchesPublicKeyHash reports whether hash equals the reference hash, in
// constant time.
func (a ReferenceAnchors) MatchesPublicKeyHash(hash string) bool {
	if a.publicKeyHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(a.publicKeyHash)) == 1
}

// IsZero reports whether a holds no references.
func (a ReferenceAnchors) IsZero() bool {
	return len(a.certificate) == 0 && a.publicKeyHash == ""
}

func validateHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("%w: empty reference public key hash", ErrConfiguration)
	}
	digest, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return fmt.Errorf("%w: reference public key hash is not base64: %w", ErrConfiguration, err)
	}
	if len(digest) != sha256.Size {
		return fmt.Errorf("%w: reference public key hash is %d bytes, want %d",
			ErrConfiguration, len(digest), sha256.Size)
	}
	return nil
}
