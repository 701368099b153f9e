package trustd

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go.inet256.org/trustd/pkg/peerauth"
	"go.inet256.org/trustd/pkg/valregistry/valregistrytest"
)

func TestConfigRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yml")
	c := DefaultConfig()
	c.Registry.Period = 15 * time.Second
	c.TLS = &TLSSpec{Endpoint: "0.0.0.0:9185", CertPath: "./cert.pem", KeyPath: "./key.pem"}
	require.NoError(t, SaveConfig(c, p))
	c2, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, c, *c2)
}

func TestLoadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(`
registry:
  endpoint: https://fullnode.example.com:443
  period: 30s
`), 0o644))
	c, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "https://fullnode.example.com:443", c.Registry.Endpoint)
	require.Equal(t, 30*time.Second, c.GetPeriod())
	require.Equal(t, 10*time.Second, c.GetTimeout())
	require.Equal(t, DefaultAPIEndpoint, c.GetAPIAddr())

	params, err := MakeParams(p, *c)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, params.Period)
	require.Nil(t, params.TLS)
}

func TestMakeParamsInvalid(t *testing.T) {
	for _, c := range []Config{
		{},
		{Registry: RegistrySpec{Endpoint: "fullnode:9000"}},
		{Registry: RegistrySpec{Endpoint: "http://fullnode:9000", Period: -time.Second}},
		{Registry: RegistrySpec{Endpoint: "http://fullnode:9000"}, TLS: &TLSSpec{}},
		{Registry: RegistrySpec{Endpoint: "http://fullnode:9000"}, TLS: &TLSSpec{Endpoint: ":0", CertPath: "./missing.pem", KeyPath: "./missing.pem"}},
	} {
		_, err := MakeParams(filepath.Join(t.TempDir(), "config.yml"), c)
		require.Error(t, err)
	}
}

func TestMakeParamsTLS(t *testing.T) {
	dir := t.TempDir()
	writeKeyPair(t, dir, 0)
	c := DefaultConfig()
	c.TLS = &TLSSpec{Endpoint: "127.0.0.1:0", CertPath: "./cert.pem", KeyPath: "./key.pem"}
	params, err := MakeParams(filepath.Join(dir, "config.yml"), c)
	require.NoError(t, err)
	require.NotNil(t, params.TLS)
	require.Equal(t, "127.0.0.1:0", params.TLS.Addr)
	require.Len(t, params.TLS.Certificate.Certificate, 1)
}

func writeKeyPair(t testing.TB, dir string, i int) {
	priv := ed25519.PrivateKey(valregistrytest.NewPrivateKey(t, i))
	cert, err := peerauth.SelfSignedCertificate(priv, "localhost")
	require.NoError(t, err)
	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cert.pem"), certPEM, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.pem"), keyPEM, 0o600))
}
