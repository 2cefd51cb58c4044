// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package pinning

import (
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeremyhahn/go-certpin/pkg/anchors"
	"github.com/jeremyhahn/go-certpin/pkg/keyhash"
)

// TrustEvaluator judges a presented certificate chain. Implementations must
// be safe for concurrent use and must fail closed.
type TrustEvaluator interface {
	// Evaluate returns Accept or Reject for the DER-encoded chain (leaf
	// first) presented by hostname, under policy, against ref.
	Evaluate(chain [][]byte, policy Policy, ref anchors.ReferenceAnchors, hostname string) Verdict
}

// EvaluatorConfig configures an Evaluator.
type EvaluatorConfig struct {
	// Roots are the trust anchors for default chain validation. If nil, the
	// system roots are used.
	Roots *x509.CertPool

	// CurrentTime returns the time used for validity checks. If nil,
	// time.Now is used.
	CurrentTime func() time.Time

	// VerifyChainForKeyPins additionally requires default chain and hostname
	// validation under PolicyPublicKey. Off by default: a matching key hash
	// alone is sufficient.
	VerifyChainForKeyPins bool

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Evaluator is the default TrustEvaluator. It holds no mutable state.
type Evaluator struct {
	roots       *x509.CertPool
	now         func() time.Time
	chainForKey bool
	logger      *slog.Logger
}

var _ TrustEvaluator = (*Evaluator)(nil)

// NewEvaluator creates an Evaluator. A nil config selects all defaults.
func NewEvaluator(cfg *EvaluatorConfig) *Evaluator {
	if cfg == nil {
		cfg = &EvaluatorConfig{}
	}
	now := cfg.CurrentTime
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		roots:       cfg.Roots,
		now:         now,
		chainForKey: cfg.VerifyChainForKeyPins,
		logger:      logger.With("component", "trust_evaluator"),
	}
}

// Evaluate implements TrustEvaluator. There are no retries: a Reject is
// final for the connection attempt.
func (e *Evaluator) Evaluate(chain [][]byte, policy Policy, ref anchors.ReferenceAnchors, hostname string) (v Verdict) {
	// Fail closed on anything unexpected while handling peer data.
	defer func() {
		if r := recover(); r != nil {
			v = reject(fmt.Errorf("%w: %v", ErrMalformedChain, r))
		}
		e.logger.Debug("trust evaluated",
			"policy", policy, "host", hostname, "decision", v.Decision, "reason", v.Err)
	}()

	leaf, err := parseLeaf(chain)
	if err != nil {
		return reject(err)
	}

	switch policy {
	case PolicyCertificate:
		return e.evaluateCertificate(leaf, chain[1:], ref, hostname)
	case PolicyPublicKey:
		return e.evaluatePublicKey(leaf, chain[1:], ref, hostname)
	default:
		return reject(fmt.Errorf("%w: %q", ErrUnknownPolicy, policy))
	}
}

// evaluateCertificate requires both default validation against hostname
// and a byte-exact leaf match.
func (e *Evaluator) evaluateCertificate(leaf *x509.Certificate, rest [][]byte, ref anchors.ReferenceAnchors, hostname string) Verdict {
	certs, err := e.verifyChain(leaf, rest, hostname)
	if err != nil {
		return reject(err)
	}
	if !ref.MatchesCertificate(leaf.Raw) {
		return reject(fmt.Errorf("%w: leaf certificate differs from reference", ErrPinMismatch))
	}
	return accept(certs)
}

// evaluatePublicKey compares the leaf key hash with the reference hash.
// Entries after the leaf are only read when chain validation is enabled.
func (e *Evaluator) evaluatePublicKey(leaf *x509.Certificate, rest [][]byte, ref anchors.ReferenceAnchors, hostname string) Verdict {
	certs := []*x509.Certificate{leaf}
	if e.chainForKey {
		var err error
		if certs, err = e.verifyChain(leaf, rest, hostname); err != nil {
			return reject(err)
		}
	}

	if !keyhash.MatchesAssumedShape(leaf.RawSubjectPublicKeyInfo) {
		e.logger.Warn("leaf key does not have the pinned key shape; hash cannot match",
			"host", hostname, "algorithm", leaf.PublicKeyAlgorithm.String(), "assumed", keyhash.AssumedKeyShape)
	}

	hash, err := keyhash.HashCertificate(leaf)
	if err != nil {
		return reject(fmt.Errorf("%w: %w", ErrKeyExtraction, err))
	}
	if !ref.MatchesPublicKeyHash(hash) {
		return reject(fmt.Errorf("%w: public key hash differs from reference", ErrPinMismatch))
	}
	return accept(certs)
}

// verifyChain runs default chain validation with a mandatory hostname check
// and returns the parsed chain, leaf first. Any unparsable intermediate
// rejects the chain.
func (e *Evaluator) verifyChain(leaf *x509.Certificate, rest [][]byte, hostname string) ([]*x509.Certificate, error) {
	if hostname == "" {
		return nil, ErrHostnameRequired
	}

	certs := make([]*x509.Certificate, 0, len(rest)+1)
	certs = append(certs, leaf)
	intermediates := x509.NewCertPool()
	for i, raw := range rest {
		c, err := x509.ParseCertificate(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: certificate %d: %w", ErrMalformedChain, i+1, err)
		}
		intermediates.AddCert(c)
		certs = append(certs, c)
	}

	_, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       hostname,
		Roots:         e.roots,
		Intermediates: intermediates,
		CurrentTime:   e.now(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	if err != nil {
		var hostErr x509.HostnameError
		if errors.As(err, &hostErr) {
			return nil, fmt.Errorf("%w: hostname mismatch: %w", ErrChainValidation, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrChainValidation, err)
	}
	return certs, nil
}

// parseLeaf parses the first certificate of chain, the only entry every
// policy reads.
func parseLeaf(chain [][]byte) (*x509.Certificate, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no certificates presented", ErrMalformedChain)
	}
	leaf, err := x509.ParseCertificate(chain[0])
	if err != nil {
		return nil, fmt.Errorf("%w: leaf certificate: %w", ErrMalformedChain, err)
	}
	return leaf, nil
}
