package keystore

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"

	"github.com/sagarc03/mayray"
)

// Provider opens the listening socket, wrapped in TLS or not.
type Provider struct {
	status mayray.TLSStatus
	config *tls.Config
}

// NewProvider creates a Provider from the server configuration. With TLS on,
// the keystore is loaded right away and its password wiped.
func NewProvider(cfg *mayray.ServerConfig, logger *slog.Logger) (*Provider, error) {
	switch cfg.TLS {
	case mayray.TLSOff:
		cfg.WipePasswords()
		logger.Info("TLS is off")
		return &Provider{status: mayray.TLSOff}, nil
	case mayray.TLSOn:
		tlsConfig, err := Load(cfg.KeyStorePath, cfg.KeyStorePassword)
		if err != nil {
			return nil, err
		}
		logger.Info("TLS is on", "keystore", cfg.KeyStorePath)
		return &Provider{status: mayray.TLSOn, config: tlsConfig}, nil
	default:
		return nil, fmt.Errorf("invalid tls status: %q", cfg.TLS)
	}
}

// Status reports whether listeners are wrapped in TLS.
func (p *Provider) Status() mayray.TLSStatus {
	return p.status
}

// TLSConfig returns the TLS configuration, or nil if TLS is off.
func (p *Provider) TLSConfig() *tls.Config {
	if p.config == nil {
		return nil
	}
	return p.config.Clone()
}

// Listen opens a TCP listener on addr.
func (p *Provider) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if p.status == mayray.TLSOn {
		return tls.NewListener(ln, p.config), nil
	}
	return ln, nil
}
