// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package interceptor wires a pinning.TrustEvaluator into the TLS handshake.
// The platform's default verification is replaced by a per-connection
// callback that either lets the handshake continue with the peer's own
// certificates or aborts it.
package interceptor

import "errors"

var (
	// ErrHandshakeRejected is returned from the handshake callback when the
	// presented chain is not trusted. The cause is only logged.
	ErrHandshakeRejected = errors.New("interceptor: server trust rejected")

	// ErrInvalidConfig indicates the interceptor or client configuration is
	// invalid or missing required fields.
	ErrInvalidConfig = errors.New("interceptor: invalid configuration")

	// ErrFetchFailed is returned when a pinned fetch fails for any reason,
	// including a rejected handshake.
	ErrFetchFailed = errors.New("interceptor: fetch failed")

	// ErrInsecureRedirect is returned when a pinned server redirects to a
	// URL that is not https, or redirects too many times.
	ErrInsecureRedirect = errors.New("interceptor: redirect refused")

	// ErrEmptyResponse is returned when the server returns an empty body.
	ErrEmptyResponse = errors.New("interceptor: empty response")
)
