// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package pinning

import (
	"crypto/x509"
	"fmt"
	"strings"
)

// Policy selects the pinning strategy for a single connection attempt.
type Policy string

const (
	// PolicyCertificate compares the leaf certificate byte-for-byte with the
	// reference certificate and also requires default chain and hostname
	// validation.
	PolicyCertificate Policy = "certificate"

	// PolicyPublicKey compares the hash of the leaf public key with the
	// reference hash. It survives certificate renewal with the same key.
	PolicyPublicKey Policy = "public-key"
)

// policyAliases maps accepted spellings to their policy.
var policyAliases = map[string]Policy{
	"certificate": PolicyCertificate,
	"cert":        PolicyCertificate,
	"public-key":  PolicyPublicKey,
	"public_key":  PolicyPublicKey,
	"publickey":   PolicyPublicKey,
	"pubkey":      PolicyPublicKey,
	"key":         PolicyPublicKey,
}

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	p, ok := policyAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
	return p, nil
}

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyCertificate || p == PolicyPublicKey
}

// String returns the policy name.
func (p Policy) String() string {
	return string(p)
}

// Decision is the binary outcome of a trust evaluation.
type Decision uint8

const (
	// Reject cancels the handshake. It is the zero value.
	Reject Decision = iota

	// Accept lets the handshake continue with the presented credentials.
	Accept
)

// String returns "accept" or "reject".
func (d Decision) String() string {
	if d == Accept {
		return "accept"
	}
	return "reject"
}

// Verdict is the result of evaluating a presented chain.
type Verdict struct {
	// Decision is Accept or Reject.
	Decision Decision

	// Chain is the parsed leaf followed by any intermediates that took part
	// in chain validation. Only set on Accept.
	Chain []*x509.Certificate

	// Err is the reason for a Reject. It is nil on Accept.
	Err error
}

// Accepted reports whether the verdict is Accept.
func (v Verdict) Accepted() bool {
	return v.Decision == Accept
}

func accept(chain []*x509.Certificate) Verdict {
	return Verdict{Decision: Accept, Chain: chain}
}

func reject(err error) Verdict {
	return Verdict{Decision: Reject, Err: err}
}
