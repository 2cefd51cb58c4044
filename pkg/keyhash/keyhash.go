// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package keyhash

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	encasn1 "encoding/asn1"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// AssumedKeyShape names the only key shape the header below describes.
// Keys of any other algorithm or size still hash, but the result can never
// equal a reference hash computed from a full SubjectPublicKeyInfo.
const AssumedKeyShape = "RSA-2048 (PKCS#1)"

// rsa2048KeySize is the length of a DER RSAPublicKey with a 2048-bit modulus
// and the usual 65537 exponent.
const rsa2048KeySize = 270

// RSA2048Header is the DER prefix of an RSA-2048 SubjectPublicKeyInfo:
// the outer SEQUENCE, the rsaEncryption AlgorithmIdentifier and the BIT
// STRING header up to the first byte of the PKCS#1 key.
var RSA2048Header = []byte{
	0x30, 0x82, 0x01, 0x22, 0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86,
	0xf7, 0x0d, 0x01, 0x01, 0x01, 0x05, 0x00, 0x03, 0x82, 0x01, 0x0f, 0x00,
}

// Hash returns the base64-encoded SHA-256 digest of RSA2048Header followed
// by keyBytes. It is pure: identical input always yields the same string.
func Hash(keyBytes []byte) string {
	h := sha256.New()
	h.Write(RSA2048Header)
	h.Write(keyBytes)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// HashPublicKey extracts the raw bytes of pub and hashes them.
func HashPublicKey(pub crypto.PublicKey) (string, error) {
	raw, err := PublicKeyBytes(pub)
	if err != nil {
		return "", err
	}
	return Hash(raw), nil
}

// HashCertificate hashes the public key embedded in cert.
func HashCertificate(cert *x509.Certificate) (string, error) {
	if cert == nil {
		return "", ErrNilCertificate
	}
	raw, err := ExternalRepresentation(cert.RawSubjectPublicKeyInfo)
	if err != nil {
		return "", err
	}
	return Hash(raw), nil
}

// PublicKeyBytes returns the raw key bytes of pub: the PKCS#1 RSAPublicKey
// for RSA, the uncompressed point for ECDSA and the raw key for Ed25519.
func PublicKeyBytes(pub crypto.PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: nil public key", ErrKeyExtraction)
	}
	spki, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyExtraction, err)
	}
	return ExternalRepresentation(spki)
}

// ExternalRepresentation returns the subjectPublicKey BIT STRING payload of
// a DER-encoded SubjectPublicKeyInfo.
func ExternalRepresentation(spki []byte) ([]byte, error) {
	input := cryptobyte.String(spki)
	var info, algorithm cryptobyte.String
	var key encasn1.BitString
	if !input.ReadASN1(&info, asn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("%w: malformed SubjectPublicKeyInfo", ErrKeyExtraction)
	}
	if !info.ReadASN1(&algorithm, asn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: malformed algorithm identifier", ErrKeyExtraction)
	}
	if !info.ReadASN1BitString(&key) || !info.Empty() {
		return nil, fmt.Errorf("%w: malformed subjectPublicKey", ErrKeyExtraction)
	}
	if len(key.Bytes) == 0 {
		return nil, fmt.Errorf("%w: empty subjectPublicKey", ErrKeyExtraction)
	}
	out := make([]byte, len(key.Bytes))
	copy(out, key.Bytes)
	return out, nil
}

// MatchesAssumedShape reports whether spki is an RSA-2048 SubjectPublicKeyInfo,
// the only shape for which Hash agrees with a hash of the full structure.
func MatchesAssumedShape(spki []byte) bool {
	return len(spki) == len(RSA2048Header)+rsa2048KeySize && bytes.HasPrefix(spki, RSA2048Header)
}
