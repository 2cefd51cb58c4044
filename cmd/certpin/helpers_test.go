// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testIdentity is a self-signed server certificate for 127.0.0.1 and
// localhost.
type testIdentity struct {
	key  any
	cert *x509.Certificate
}

func newRSAIdentity(t *testing.T) *testIdentity {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return newIdentity(t, key, &key.PublicKey)
}

func newECDSAIdentity(t *testing.T) *testIdentity {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return newIdentity(t, key, &key.PublicKey)
}

func newIdentity(t *testing.T, priv, pub any) *testIdentity {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "localhost", Organization: []string{"certpin test"}},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &testIdentity{key: priv, cert: cert}
}

// writeDER writes the certificate as DER and returns the path.
func (id *testIdentity) writeDER(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "certificate.der")
	require.NoError(t, os.WriteFile(path, id.cert.Raw, 0600))
	return path
}

// writePEM writes the certificate as PEM and returns the path.
func (id *testIdentity) writePEM(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "certificate.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: id.cert.Raw})
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// startServer serves body over TLS with id's certificate.
func (id *testIdentity) startServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	server.TLS = &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{id.cert.Raw},
			PrivateKey:  id.key,
			Leaf:        id.cert,
		}},
	}
	server.StartTLS()
	t.Cleanup(server.Close)
	return server
}

// newTestCommand returns a fresh command bound to run with flags
// registered by addFlags, so tests never share flag state.
func newTestCommand(run func(*cobra.Command, []string) error, addFlags func(*cobra.Command)) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{RunE: run}
	addFlags(cmd)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

// setFlags sets each name/value pair on cmd.
func setFlags(t *testing.T, cmd *cobra.Command, kv ...string) {
	t.Helper()
	require.Zero(t, len(kv)%2)
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, cmd.Flags().Set(kv[i], kv[i+1]))
	}
}

// captureOutput points --output at a temp file for the duration of the test.
func captureOutput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out")
	outputFile = path
	t.Cleanup(func() { outputFile = "" })
	return path
}

// withConfigFile sets --config for the duration of the test.
func withConfigFile(t *testing.T, path string) {
	t.Helper()
	configFile = path
	t.Cleanup(func() { configFile = "" })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}
