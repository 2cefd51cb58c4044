// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package interceptor

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-certpin/pkg/anchors"
	"github.com/jeremyhahn/go-certpin/pkg/keyhash"
	"github.com/jeremyhahn/go-certpin/pkg/pinning"
)

// testServerIdentity is a self-signed RSA-2048 server certificate for
// 127.0.0.1 and localhost.
type testServerIdentity struct {
	key  *rsa.PrivateKey
	cert *x509.Certificate
}

func newTestServerIdentity(t *testing.T, serial int64) *testServerIdentity {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return newTestServerIdentityWithKey(t, key, serial)
}

func newTestServerIdentityWithKey(t *testing.T, key *rsa.PrivateKey, serial int64) *testServerIdentity {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &testServerIdentity{key: key, cert: cert}
}

func (id *testServerIdentity) anchors(t *testing.T) anchors.ReferenceAnchors {
	t.Helper()
	hash, err := keyhash.HashCertificate(id.cert)
	require.NoError(t, err)
	a, err := anchors.NewReferenceAnchors(id.cert.Raw, hash)
	require.NoError(t, err)
	return a
}

func (id *testServerIdentity) roots() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(id.cert)
	return pool
}

// startTestTLSServer serves handler over TLS using id's certificate.
func startTestTLSServer(t *testing.T, id *testServerIdentity, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewUnstartedServer(handler)
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

// fakeEvaluator records calls and returns a fixed decision.
type fakeEvaluator struct {
	mu        sync.Mutex
	decision  pinning.Decision
	calls     int
	hostnames []string
	policies  []pinning.Policy
	chainLens []int
}

func (f *fakeEvaluator) Evaluate(chain [][]byte, policy pinning.Policy, _ anchors.ReferenceAnchors, hostname string) pinning.Verdict {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.hostnames = append(f.hostnames, hostname)
	f.policies = append(f.policies, policy)
	f.chainLens = append(f.chainLens, len(chain))
	if f.decision == pinning.Accept {
		return pinning.Verdict{Decision: pinning.Accept}
	}
	return pinning.Verdict{Decision: pinning.Reject, Err: pinning.ErrPinMismatch}
}

func (f *fakeEvaluator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
