// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package anchors holds the two pinning references: the bytes of a bundled
// DER certificate and a base64 public-key hash. Both are loaded once and are
// read-only afterwards.
package anchors

import "errors"

var (
	// ErrConfiguration indicates the reference certificate is missing or
	// unreadable, or the reference hash is malformed. It is a deployment-time
	// failure and must never be treated as "trust everything".
	ErrConfiguration = errors.New("anchors: invalid pinning configuration")
)
