// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package interceptor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"

	"github.com/jeremyhahn/go-certpin/pkg/anchors"
	"github.com/jeremyhahn/go-certpin/pkg/pinning"
)

// Config configures an Interceptor.
type Config struct {
	// Evaluator judges presented chains. If nil, a default
	// pinning.Evaluator using the system roots is created.
	Evaluator pinning.TrustEvaluator

	// Anchors are the reference certificate and key hash. Required.
	Anchors anchors.ReferenceAnchors

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Interceptor converts trust verdicts into handshake decisions. It is
// stateless apart from its read-only anchors and is safe for concurrent use.
type Interceptor struct {
	evaluator pinning.TrustEvaluator
	anchors   anchors.ReferenceAnchors
	logger    *slog.Logger
}

// New creates an Interceptor.
func New(cfg *Config) (*Interceptor, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.Anchors.IsZero() {
		return nil, fmt.Errorf("%w: reference anchors required", ErrInvalidConfig)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = pinning.NewEvaluator(&pinning.EvaluatorConfig{Logger: logger})
	}

	return &Interceptor{
		evaluator: evaluator,
		anchors:   cfg.Anchors,
		logger:    logger.With("component", "handshake_interceptor"),
	}, nil
}

// Challenge evaluates the certificates presented by hostname under policy.
// It returns nil to continue the handshake with the presented credentials
// and ErrHandshakeRejected to cancel it.
func (i *Interceptor) Challenge(hostname string, peerCerts []*x509.Certificate, policy pinning.Policy) error {
	if len(peerCerts) == 0 {
		i.logger.Warn("server trust rejected", "host", hostname, "policy", policy, "reason", "no certificates presented")
		return ErrHandshakeRejected
	}

	chain := make([][]byte, 0, len(peerCerts))
	for _, c := range peerCerts {
		if c == nil {
			i.logger.Warn("server trust rejected", "host", hostname, "policy", policy, "reason", "nil certificate in chain")
			return ErrHandshakeRejected
		}
		chain = append(chain, c.Raw)
	}

	verdict := i.evaluator.Evaluate(chain, policy, i.anchors, hostname)
	if !verdict.Accepted() {
		i.logger.Warn("server trust rejected", "host", hostname, "policy", policy, "reason", verdict.Err)
		return ErrHandshakeRejected
	}

	i.logger.Debug("server trust accepted", "host", hostname, "policy", policy)
	return nil
}

// TLSConfig returns a client TLS configuration for one connection to
// hostname under policy. Default certificate verification is replaced by
// Challenge, and session resumption is disabled so every connection is
// evaluated.
func (i *Interceptor) TLSConfig(policy pinning.Policy, hostname string) *tls.Config {
	return &tls.Config{
		MinVersion:             tls.VersionTLS12,
		ServerName:             hostname,
		InsecureSkipVerify:     true, //nolint:gosec // Verification is performed by VerifyConnection
		SessionTicketsDisabled: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			return i.Challenge(hostname, cs.PeerCertificates, policy)
		},
	}
}

// DialTLSContext returns a dial function for http.Transport.DialTLSContext.
// The hostname evaluated is the host part of the dialed address.
func (i *Interceptor) DialTLSContext(policy pinning.Policy) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		dialer := &tls.Dialer{Config: i.TLSConfig(policy, host)}
		return dialer.DialContext(ctx, network, addr)
	}
}
