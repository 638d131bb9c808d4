// Package keystore turns a password protected PKCS#12 keystore into a TLS
// configuration and opens listeners with it.
package keystore

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"

	"github.com/sagarc03/mayray"
)

// ErrKeyStore wraps every failure to build a TLS configuration from a
// keystore.
var ErrKeyStore = errors.New("keystore")

// Load reads the PKCS#12 keystore at path and builds a server TLS
// configuration from its key and certificate chain. The password is taken
// from secret once and the secret is wiped before Load returns, whether it
// succeeds or not.
func Load(path string, secret *mayray.Secret) (*tls.Config, error) {
	if secret == nil {
		return nil, fmt.Errorf("%w: no password", ErrKeyStore)
	}
	defer secret.Wipe()

	password, err := secret.Take()
	if err != nil {
		return nil, fmt.Errorf("%w: password: %w", ErrKeyStore, err)
	}
	defer mayray.Zero(password)

	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrKeyStore, path, err)
	}

	blocks, err := pkcs12.ToPEM(data, string(password))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrKeyStore, path, err)
	}

	var (
		keyPEM  []byte
		certPEM []byte
		certs   []*x509.Certificate
	)
	for _, b := range blocks {
		// Bag attributes end up as PEM headers; tls.X509KeyPair does not need them.
		b.Headers = nil
		if b.Type == "CERTIFICATE" {
			cert, err := x509.ParseCertificate(b.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: parse certificate: %w", ErrKeyStore, err)
			}
			certs = append(certs, cert)
			certPEM = append(certPEM, pem.EncodeToMemory(b)...)
			continue
		}
		keyPEM = append(keyPEM, pem.EncodeToMemory(b)...)
	}
	defer mayray.Zero(keyPEM)

	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: %s holds no certificate", ErrKeyStore, path)
	}
	if len(keyPEM) == 0 {
		return nil, fmt.Errorf("%w: %s holds no private key", ErrKeyStore, path)
	}

	pair, err := tls.X509KeyPair(orderChain(certPEM, certs), keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyStore, err)
	}

	pool := x509.NewCertPool()
	for _, c := range certs {
		pool.AddCert(c)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		ClientCAs:    pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// orderChain puts the leaf certificate first, as tls.X509KeyPair expects.
// The leaf is the one certificate that did not sign any other.
func orderChain(certPEM []byte, certs []*x509.Certificate) []byte {
	if len(certs) < 2 {
		return certPEM
	}

	leaf := certs[0]
	for _, c := range certs {
		isIssuer := false
		for _, other := range certs {
			if other != c && other.CheckSignatureFrom(c) == nil {
				isIssuer = true
				break
			}
		}
		if !isIssuer {
			leaf = c
			break
		}
	}

	ordered := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leaf.Raw})
	for _, c := range certs {
		if c != leaf {
			ordered = append(ordered, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})...)
		}
	}
	return ordered
}
