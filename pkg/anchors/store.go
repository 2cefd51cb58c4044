// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package anchors

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

const (
	// DefaultCertificateFile is the resource path of the bundled reference
	// certificate.
	DefaultCertificateFile = "certificate.der"

	// DefaultPublicKeyHash is the build-time reference public-key hash.
	DefaultPublicKeyHash = "pBFMLdJPHlDAMeMLz1oVJqseO92HqTu456/X+TGJqOU="

	// maxCertificateSize bounds the reference certificate file (64 KB).
	maxCertificateSize = 64 << 10
)

// Config configures the reference store.
type Config struct {
	// FS is the bundle the certificate is read from, e.g. an embed.FS.
	// When nil, CertificatePath is read from the OS filesystem.
	FS fs.FS

	// CertificatePath is the path of the DER reference certificate.
	// Default: DefaultCertificateFile.
	CertificatePath string

	// PublicKeyHash is the base64 reference public-key hash.
	// Default: DefaultPublicKeyHash.
	PublicKeyHash string

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Store loads the reference anchors lazily, exactly once, and serves them
// to any number of concurrent readers.
type Store struct {
	path   string
	hash   string
	load   func() (ReferenceAnchors, error)
	logger *slog.Logger
}

// NewStore creates a reference store. Nothing is read until the first call
// to Anchors or ReferenceCertificateBytes.
func NewStore(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfiguration)
	}

	path := cfg.CertificatePath
	if path == "" {
		path = DefaultCertificateFile
	}
	hash := cfg.PublicKeyHash
	if hash == "" {
		hash = DefaultPublicKeyHash
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:   path,
		hash:   hash,
		logger: logger.With("component", "anchor_store"),
	}
	fsys := cfg.FS
	s.load = sync.OnceValues(func() (ReferenceAnchors, error) {
		return s.readAnchors(fsys)
	})
	return s, nil
}

// Anchors returns the loaded reference anchors. A load failure is cached
// and returned on every call.
func (s *Store) Anchors() (ReferenceAnchors, error) {
	return s.load()
}

// ReferenceCertificateBytes returns a copy of the bundled certificate bytes.
func (s *Store) ReferenceCertificateBytes() ([]byte, error) {
	a, err := s.load()
	if err != nil {
		return nil, err
	}
	return a.Certificate(), nil
}

// ReferencePublicKeyHash returns the configured reference hash.
func (s *Store) ReferencePublicKeyHash() string {
	return s.hash
}

func (s *Store) readAnchors(fsys fs.FS) (ReferenceAnchors, error) {
	var (
		data []byte
		err  error
	)
	if fsys != nil {
		data, err = fs.ReadFile(fsys, s.path)
	} else {
		data, err = os.ReadFile(s.path)
	}
	if err != nil {
		s.logger.Error("reference certificate unavailable", "path", s.path, "error", err)
		return ReferenceAnchors{}, fmt.Errorf("%w: read %s: %w", ErrConfiguration, s.path, err)
	}
	if len(data) > maxCertificateSize {
		s.logger.Error("reference certificate too large", "path", s.path, "bytes", len(data))
		return ReferenceAnchors{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrConfiguration, s.path, maxCertificateSize)
	}

	a, err := NewReferenceAnchors(data, s.hash)
	if err != nil {
		s.logger.Error("invalid reference anchors", "path", s.path, "error", err)
		return ReferenceAnchors{}, err
	}

	s.logger.Debug("reference anchors loaded", "path", s.path, "bytes", len(data))
	return a, nil
}
