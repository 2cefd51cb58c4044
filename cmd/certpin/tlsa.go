// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"crypto/x509"
	"fmt"
	"strconv"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"
)

const (
	// defaultTLSAPort is the default service port for TLSA owner names.
	defaultTLSAPort = 443

	// defaultTLSATTL is the default TTL of generated records.
	defaultTLSATTL = 3600

	// tlsaUsageDANEEE pins the end-entity certificate without PKIX validation.
	tlsaUsageDANEEE = 3
)

// tlsaPins are the (selector, matching type) pairs matching the two
// pinning policies: the full certificate and the SubjectPublicKeyInfo, both
// as SHA-256.
var tlsaPins = []struct {
	selector     int
	matchingType int
}{
	{0, 1},
	{1, 1},
}

// tlsaCmd prints DANE-EE TLSA records for the reference certificate.
var tlsaCmd = &cobra.Command{
	Use:   "tlsa",
	Short: "Generate TLSA records for the reference certificate",
	Long: `Generate DANE-EE (usage 3) TLSA zone file lines that publish the same
pins certpin enforces: "3 0 1" for the certificate policy and "3 1 1" for
the public-key policy. The certificate defaults to the configured reference
certificate.`,
	RunE: runTLSA,
}

func init() {
	addTLSAFlags(tlsaCmd)
}

// addTLSAFlags registers the tlsa flags on cmd.
func addTLSAFlags(cmd *cobra.Command) {
	cmd.Flags().String("cert-file", "", "DER or PEM certificate (default: configured reference certificate)")
	cmd.Flags().String("host", "", "server hostname (required)")
	cmd.Flags().Int("port", defaultTLSAPort, "server TCP port")
	cmd.Flags().Uint32("ttl", defaultTLSATTL, "record TTL in seconds")
}

// runTLSA prints one TLSA record per pinning policy.
func runTLSA(cmd *cobra.Command, args []string) error {
	certFile, _ := cmd.Flags().GetString("cert-file")
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	ttl, _ := cmd.Flags().GetUint32("ttl")

	if host == "" {
		return fmt.Errorf("%w: --host is required", ErrInvalidInput)
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: --port must be between 1 and 65535", ErrInvalidInput)
	}

	if certFile == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		certFile = cfg.Anchors.Certificate
	}

	cert, err := loadCertificate(certFile)
	if err != nil {
		return err
	}

	records, err := buildTLSARecords(cert, host, port, ttl)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, rr := range records {
		fmt.Fprintln(out, rr.String())
	}
	return nil
}

// buildTLSARecords returns the TLSA records for cert at host:port.
func buildTLSARecords(cert *x509.Certificate, host string, port int, ttl uint32) ([]*dns.TLSA, error) {
	name, err := dns.TLSAName(dns.Fqdn(host), strconv.Itoa(port), "tcp")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	records := make([]*dns.TLSA, 0, len(tlsaPins))
	for _, p := range tlsaPins {
		rr := &dns.TLSA{
			Hdr: dns.RR_Header{
				Name:   name,
				Rrtype: dns.TypeTLSA,
				Class:  dns.ClassINET,
				Ttl:    ttl,
			},
		}
		if err := rr.Sign(tlsaUsageDANEEE, p.selector, p.matchingType, cert); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRecordGeneration, err)
		}
		records = append(records, rr)
	}
	return records, nil
}
