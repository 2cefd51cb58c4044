// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package config loads the certpin TOML configuration file.
//
// Example:
//
//	[anchors]
//	certificate = "/etc/certpin/certificate.der"
//	public_key_hash = "pBFMLdJPHlDAMeMLz1oVJqseO92HqTu456/X+TGJqOU="
//
//	[evaluator]
//	roots = "/etc/certpin/roots.pem"
//	verify_chain_for_key_pins = false
//
//	[client]
//	policy = "certificate"
//	timeout = "10s"
//	rate_limit = 0.0
//	burst = 1
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeremyhahn/go-certpin/pkg/anchors"
	"github.com/jeremyhahn/go-certpin/pkg/pinning"
)

// ErrInvalidConfig is returned when the configuration file cannot be read
// or contains invalid values.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the top-level configuration file.
type Config struct {
	Anchors   Anchors   `toml:"anchors"`
	Evaluator Evaluator `toml:"evaluator"`
	Client    Client    `toml:"client"`
}

// Anchors locates the pinning references.
type Anchors struct {
	Certificate   string `toml:"certificate"`
	PublicKeyHash string `toml:"public_key_hash"`
}

// Evaluator configures trust evaluation.
type Evaluator struct {
	// Roots is an optional PEM bundle used instead of the system roots.
	Roots                 string `toml:"roots"`
	VerifyChainForKeyPins bool   `toml:"verify_chain_for_key_pins"`
}

// Client configures the pinned fetch client.
type Client struct {
	Policy  string        `toml:"policy"`
	Timeout time.Duration `toml:"timeout"`

	// RateLimit caps outgoing requests per second; zero disables it.
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Anchors: Anchors{
			Certificate:   anchors.DefaultCertificateFile,
			PublicKeyHash: anchors.DefaultPublicKeyHash,
		},
		Client: Client{
			Policy:  string(pinning.PolicyCertificate),
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrInvalidConfig, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: unknown keys: %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Anchors.Certificate == "" {
		return fmt.Errorf("%w: anchors.certificate is required", ErrInvalidConfig)
	}
	if c.Anchors.PublicKeyHash == "" {
		return fmt.Errorf("%w: anchors.public_key_hash is required", ErrInvalidConfig)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: client.policy: %w", ErrInvalidConfig, err)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("%w: client.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Client.RateLimit < 0 {
		return fmt.Errorf("%w: client.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Client.Burst < 0 {
		return fmt.Errorf("%w: client.burst must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Policy returns the parsed client policy.
func (c *Config) Policy() (pinning.Policy, error) {
	return pinning.ParsePolicy(c.Client.Policy)
}

// StoreConfig returns the reference store configuration.
func (c *Config) StoreConfig() *anchors.Config {
	return &anchors.Config{
		CertificatePath: c.Anchors.Certificate,
		PublicKeyHash:   c.Anchors.PublicKeyHash,
	}
}
