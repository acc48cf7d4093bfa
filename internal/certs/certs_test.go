package certs

import (
	"crypto/x509"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, der []byte) *x509.Certificate {
	t.Helper()
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestFileManager_GetOrCreateCertificate(t *testing.T) {
	tests := []struct {
		setup func(t *testing.T, m *FileManager)
		check func(t *testing.T, m *FileManager, cert *x509.Certificate)
		name  string
	}{
		{
			name:  "creates new certificate when none exists",
			setup: func(*testing.T, *FileManager) {},
			check: func(t *testing.T, _ *FileManager, cert *x509.Certificate) {
				t.Helper()
				assert.Equal(t, []string{"Household Ledger"}, cert.Subject.Organization)
				assert.Contains(t, cert.DNSNames, "localhost")
				assert.Contains(t, cert.DNSNames, "ledger.lan")
				assert.NoError(t, cert.VerifyHostname("ledger.lan"))
				assert.NoError(t, cert.VerifyHostname("192.168.1.10"))
			},
		},
		{
			name: "reuses existing valid certificate",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				_, err := m.GetOrCreateCertificate()
				require.NoError(t, err)
			},
			check: func(t *testing.T, m *FileManager, cert *x509.Certificate) {
				t.Helper()
				stored, err := os.ReadFile(m.certFile)
				require.NoError(t, err)
				again, err := m.GetOrCreateCertificate()
				require.NoError(t, err)
				assert.Equal(t, cert.SerialNumber, parse(t, again.Certificate[0]).SerialNumber)
				after, err := os.ReadFile(m.certFile)
				require.NoError(t, err)
				assert.Equal(t, stored, after)
			},
		},
		{
			name: "regenerates unreadable files",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				require.NoError(t, os.MkdirAll(m.certDir, 0700))
				require.NoError(t, os.WriteFile(m.certFile, []byte("garbage"), 0600))
				require.NoError(t, os.WriteFile(m.keyFile, []byte("garbage"), 0600))
			},
			check: func(t *testing.T, _ *FileManager, cert *x509.Certificate) {
				t.Helper()
				assert.NoError(t, cert.VerifyHostname("localhost"))
			},
		},
		{
			name: "regenerates when close to expiry",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				m.now = func() time.Time { return time.Now().Add(-Validity) }
				_, err := m.GetOrCreateCertificate()
				require.NoError(t, err)
				m.now = time.Now
			},
			check: func(t *testing.T, _ *FileManager, cert *x509.Certificate) {
				t.Helper()
				assert.True(t, cert.NotAfter.After(time.Now().Add(Validity-time.Hour)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFileManager(filepath.Join(t.TempDir(), "certs"), "ledger.lan", "192.168.1.10")
			tt.setup(t, m)

			cert, err := m.GetOrCreateCertificate()
			require.NoError(t, err)
			require.Len(t, cert.Certificate, 1)
			tt.check(t, m, parse(t, cert.Certificate[0]))
		})
	}
}

func TestFileManager_NewHostRegenerates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	_, err := NewFileManager(dir).GetOrCreateCertificate()
	require.NoError(t, err)

	cert, err := NewFileManager(dir, "ledger.lan").GetOrCreateCertificate()
	require.NoError(t, err)
	assert.NoError(t, parse(t, cert.Certificate[0]).VerifyHostname("ledger.lan"))
}

func TestFileManager_CertificateExists(t *testing.T) {
	m := NewFileManager(filepath.Join(t.TempDir(), "certs"))

	exists, err := m.CertificateExists()
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = m.GetOrCreateCertificate()
	require.NoError(t, err)

	exists, err = m.CertificateExists()
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, os.Remove(m.keyFile))
	exists, err = m.CertificateExists()
	require.NoError(t, err)
	assert.False(t, exists, "a lone certificate without its key does not count")
}

func TestFileManager_TLSConfig(t *testing.T) {
	m := NewFileManager(filepath.Join(t.TempDir(), "certs"))

	cfg, err := m.TLSConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)

	cert := parse(t, cfg.Certificates[0].Certificate[0])
	hasLoopback := false
	for _, ip := range cert.IPAddresses {
		if ip.Equal(net.IPv4(127, 0, 0, 1)) {
			hasLoopback = true
		}
	}
	assert.True(t, hasLoopback)
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, cert.ExtKeyUsage)
}
