// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-certpin/pkg/keyhash"
)

// hashCmd computes the pinning values of a certificate file.
var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Show the public-key hash of a certificate",
	Long: `Compute the values used for pinning from a DER or PEM certificate file:
the base64 public-key hash for the public-key policy and the SHA-256 of the
DER certificate.

The key hash assumes an RSA-2048 key. For any other key type the hash is
still printed but will never match a server under the public-key policy.`,
	RunE: runHash,
}

func init() {
	addHashFlags(hashCmd)
}

// addHashFlags registers the hash flags on cmd.
func addHashFlags(cmd *cobra.Command) {
	cmd.Flags().String("cert-file", "", "path to DER or PEM certificate file (required)")
}

// runHash prints the key hash, key shape and certificate digest.
func runHash(cmd *cobra.Command, args []string) error {
	certFile, _ := cmd.Flags().GetString("cert-file")
	if certFile == "" {
		return fmt.Errorf("%w: --cert-file is required", ErrInvalidInput)
	}

	cert, err := loadCertificate(certFile)
	if err != nil {
		return err
	}

	keyHash, err := keyhash.HashCertificate(cert)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	shape := keyhash.AssumedKeyShape
	if !keyhash.MatchesAssumedShape(cert.RawSubjectPublicKeyInfo) {
		shape = fmt.Sprintf("%s (unsupported, hash cannot match)", cert.PublicKeyAlgorithm)
	}
	digest := sha256.Sum256(cert.Raw)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Public key hash:    %s\n", keyHash)
	fmt.Fprintf(out, "Key shape:          %s\n", shape)
	fmt.Fprintf(out, "Certificate SHA256: %s\n", hex.EncodeToString(digest[:]))
	fmt.Fprintf(out, "Subject:            %s\n", cert.Subject.String())
	fmt.Fprintf(out, "Issuer:             %s\n", cert.Issuer.String())
	return nil
}
