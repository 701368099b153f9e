// Package peerauth authenticates peers by the Ed25519 key in their TLS certificate,
// using a trustset.Allower to decide who may connect.
package peerauth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"go.inet256.org/trustd/pkg/trustset"
)

var (
	ErrNoCertificate = errors.New("peer did not present a certificate")
)

// ErrNotAllowed is returned when a peer's key is not in the trust set.
type ErrNotAllowed struct {
	Key trustset.PublicKey
}

func (e ErrNotAllowed) Error() string {
	return "public key " + e.Key.String() + " is not on the allow list"
}

// VerifyPeerCertificate returns a function for tls.Config.VerifyPeerCertificate.
// Certificates are self signed, the chain is not checked; the leaf's Ed25519 key is the peer's identity.
func VerifyPeerCertificate(allower trustset.Allower) func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return ErrNoCertificate
		}
		cert, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return errors.Wrap(err, "parsing peer certificate")
		}
		key, err := PublicKeyFromCert(cert)
		if err != nil {
			return err
		}
		if !allower.Allowed(key) {
			return ErrNotAllowed{Key: key}
		}
		return nil
	}
}

// PublicKeyFromCert returns the Ed25519 key from cert.
func PublicKeyFromCert(cert *x509.Certificate) (trustset.PublicKey, error) {
	pub, ok := cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return trustset.PublicKey{}, errors.Errorf("certificate has key of type %T, want ed25519", cert.PublicKey)
	}
	return trustset.ParsePublicKey(pub)
}

// ServerConfig requires clients to present a certificate whose key is allowed.
func ServerConfig(cert tls.Certificate, allower trustset.Allower) *tls.Config {
	return &tls.Config{
		Certificates:          []tls.Certificate{cert},
		ClientAuth:            tls.RequireAnyClientCert,
		VerifyPeerCertificate: VerifyPeerCertificate(allower),
		MinVersion:            tls.VersionTLS13,
	}
}

// ClientConfig presents cert to the server and only accepts servers whose key is allowed.
func ClientConfig(cert tls.Certificate, allower trustset.Allower) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		// the server's chain is checked by VerifyPeerCertificate instead
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: VerifyPeerCertificate(allower),
		MinVersion:            tls.VersionTLS13,
	}
}

// SelfSignedCertificate creates a certificate for privateKey, valid for a year.
func SelfSignedCertificate(privateKey ed25519.PrivateKey, name string) (tls.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, err
	}
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: name},
		DNSNames:     []string{name},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, privateKey.Public(), privateKey)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  privateKey,
	}, nil
}
