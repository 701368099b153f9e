package trustcmd

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"go.inet256.org/trustd/pkg/peerauth"
	"go.inet256.org/trustd/pkg/trustset"
)

func newGenCertCmd() *cobra.Command {
	var dir string
	c := &cobra.Command{
		Use:   "gen-cert",
		Short: "generates an ed25519 key and self-signed certificate for the peer listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			if err := writeKeyPair(dir, priv); err != nil {
				return err
			}
			pub, err := trustset.ParsePublicKey(priv.Public().(ed25519.PublicKey))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(pub.String() + "\n"))
			return err
		},
	}
	c.Flags().StringVar(&dir, "out", ".", "--out=path/to/dir")
	return c
}

// writeKeyPair writes cert.pem and key.pem into dir.
func writeKeyPair(dir string, priv ed25519.PrivateKey) error {
	cert, err := peerauth.SelfSignedCertificate(priv, "trustd")
	if err != nil {
		return err
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(filepath.Join(dir, "cert.pem"), certPEM, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "key.pem"), keyPEM, 0o600)
}
