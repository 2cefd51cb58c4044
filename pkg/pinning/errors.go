// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package pinning decides whether a server's presented certificate chain is
// trusted under one of two pinning policies: byte-exact certificate pinning
// combined with default chain and hostname validation, or public-key pinning
// against a reference key hash.
//
// Every failure resolves to a Reject verdict. The errors below are carried
// in the verdict for diagnostics only.
package pinning

import "errors"

var (
	// ErrMalformedChain indicates the presented chain was empty or could not
	// be parsed.
	ErrMalformedChain = errors.New("pinning: malformed certificate chain")

	// ErrKeyExtraction indicates the leaf public key could not be read.
	ErrKeyExtraction = errors.New("pinning: public key extraction failed")

	// ErrChainValidation indicates default chain or hostname validation
	// failed.
	ErrChainValidation = errors.New("pinning: chain validation failed")

	// ErrHostnameRequired indicates certificate pinning was requested
	// without a hostname to validate against.
	ErrHostnameRequired = errors.New("pinning: hostname required")

	// ErrPinMismatch indicates the leaf did not match the reference anchor.
	ErrPinMismatch = errors.New("pinning: pin mismatch")

	// ErrUnknownPolicy indicates an unrecognized pinning policy.
	ErrUnknownPolicy = errors.New("pinning: unknown policy")
)
