// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// pemCertificateType is the PEM block type for X.509 certificates.
const pemCertificateType = "CERTIFICATE"

// loadCertificate reads a DER or PEM certificate file. For PEM input the
// first CERTIFICATE block is used.
func loadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	der := data
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != pemCertificateType {
			return nil, fmt.Errorf("%w: %s: unexpected PEM block %q", ErrInvalidInput, path, block.Type)
		}
		der = block.Bytes
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, path, err)
	}
	return cert, nil
}

// loadRoots reads a PEM bundle into a certificate pool. An empty path
// returns nil, selecting the system roots.
func loadRoots(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileOperation, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("%w: %s contains no PEM certificates", ErrInvalidInput, path)
	}
	return pool, nil
}
